package receipt

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// DateLayout is the preferred output format for receipt dates.
const DateLayout = "02/01/2006"

// ErrInvalidPrice is returned by ParsePrice for text that is not a price.
var ErrInvalidPrice = errors.New("invalid price")

// Day-first layouts come before month-first ones.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2 Jan 06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
}

var currencyTokens = []string{"USD", "EUR", "GBP", "JPY", "INR", "CHF", "$", "€", "£", "¥", "₹"}

// NormalizeText composes Unicode, replaces control characters with spaces,
// collapses runs of whitespace and trims the result.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeDate rewrites recognised date formats as dd/mm/yyyy.
// Unrecognised input is returned trimmed but otherwise unchanged.
func NormalizeDate(s string) string {
	s = NormalizeText(s)
	if s == "" {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return s
}

// ParsePrice parses price text as printed on receipts: currency symbols,
// decimal commas, thousands separators, trailing minus and accounting
// parentheses are accepted.
func ParsePrice(s string) (decimal.Decimal, error) {
	orig := s
	s = strings.TrimSpace(norm.NFC.String(s))

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	upper := strings.ToUpper(s)
	for _, tok := range currencyTokens {
		upper = strings.ReplaceAll(upper, tok, "")
	}
	s = strings.Join(strings.Fields(upper), "")

	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	s = normalizeSeparators(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidPrice, orig)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidPrice, orig)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites digit grouping so the only separator left is
// a '.' decimal point.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	default:
		return s
	}
}

// StripCodeFence removes a markdown code fence around model output and any
// prose outside the outermost JSON object.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}

	if !strings.HasPrefix(s, "{") {
		start := strings.Index(s, "{")
		end := strings.LastIndex(s, "}")
		if start >= 0 && end > start {
			s = s[start : end+1]
		}
	} else if end := strings.LastIndex(s, "}"); end >= 0 {
		s = s[:end+1]
	}

	return s
}

// Normalize returns a copy of rec with text fields cleaned, the date in
// dd/mm/yyyy where recognised and category names in registry form.
func Normalize(rec model.ReceiptRecord) model.ReceiptRecord {
	out := model.ReceiptRecord{
		Vendor:    NormalizeText(rec.Vendor),
		Date:      NormalizeDate(rec.Date),
		LineItems: make([]model.LineItem, len(rec.LineItems)),
	}
	if rec.TotalAmount != nil {
		total := *rec.TotalAmount
		out.TotalAmount = &total
	}
	for i, li := range rec.LineItems {
		out.LineItems[i] = model.LineItem{
			Item:     NormalizeText(li.Item),
			Price:    li.Price,
			Category: model.NormalizeCategoryName(NormalizeText(li.Category)),
		}
	}
	return out
}
