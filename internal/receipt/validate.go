// Package receipt turns classifier output into validated, normalized receipt
// records and the spreadsheet rows derived from them.
package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// Kind classifies a validation failure.
type Kind string

// Validation failure kinds.
const (
	KindMalformedJSON         Kind = "malformed_json"
	KindMissingFields         Kind = "missing_fields"
	KindWrongType             Kind = "wrong_type"
	KindMissingLineItemFields Kind = "missing_line_item_fields"
)

// Required keys, in reporting order.
var (
	RequiredFields         = []string{"vendor", "date", "line_items"}
	RequiredLineItemFields = []string{"item", "price", "category"}
)

// ValidationError describes why a candidate record was rejected.
type ValidationError struct {
	Err     error
	Item    any
	Kind    Kind
	Field   string
	Missing []string
	Index   int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMalformedJSON:
		if e.Err != nil {
			return fmt.Sprintf("malformed JSON: %v", e.Err)
		}
		return "malformed JSON: expected an object"
	case KindMissingFields:
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
	case KindWrongType:
		return fmt.Sprintf("wrong type for %s", e.Field)
	case KindMissingLineItemFields:
		return fmt.Sprintf("line item %d missing required fields: %s", e.Index, strings.Join(e.Missing, ", "))
	default:
		return "invalid receipt"
	}
}

// Unwrap returns the sentinel for the failure kind.
func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindMalformedJSON:
		return common.ErrMalformedJSON
	case KindMissingFields:
		return common.ErrMissingFields
	case KindWrongType:
		return common.ErrWrongType
	case KindMissingLineItemFields:
		return common.ErrMissingLineItemFields
	default:
		return nil
	}
}

// Decode parses a candidate document without interpreting it.
// Numbers are kept as json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ValidationError{Kind: KindMalformedJSON, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Kind: KindMalformedJSON, Err: errors.New("unexpected data after top-level value")}
	}
	return v, nil
}

// Validate decodes data and checks it against the receipt schema.
func Validate(data []byte) (*model.ReceiptRecord, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return ValidateValue(v)
}

// ValidateValue checks an already decoded value. Checks run in order and stop
// at the first failure: object shape, required keys, line_items is an array,
// each line item has its required keys, then field types. A price given as
// a string is accepted when ParsePrice can read it ("$4.50", "4,50"); no
// other field is coerced.
func ValidateValue(v any) (*model.ReceiptRecord, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ValidationError{Kind: KindMalformedJSON}
	}

	if missing := missingKeys(obj, RequiredFields); len(missing) > 0 {
		return nil, &ValidationError{Kind: KindMissingFields, Missing: missing}
	}

	items, ok := obj["line_items"].([]any)
	if !ok {
		return nil, &ValidationError{Kind: KindWrongType, Field: "line_items"}
	}

	for i, raw := range items {
		item, isObj := raw.(map[string]any)
		if !isObj {
			return nil, &ValidationError{Kind: KindMissingLineItemFields, Item: raw, Index: i, Missing: RequiredLineItemFields}
		}
		if missing := missingKeys(item, RequiredLineItemFields); len(missing) > 0 {
			return nil, &ValidationError{Kind: KindMissingLineItemFields, Item: raw, Index: i, Missing: missing}
		}
	}

	rec := &model.ReceiptRecord{LineItems: make([]model.LineItem, 0, len(items))}
	var err error

	if rec.Vendor, err = stringField(obj["vendor"], "vendor"); err != nil {
		return nil, err
	}
	if rec.Date, err = stringField(obj["date"], "date"); err != nil {
		return nil, err
	}
	if total, parseErr := numberField(obj["total_amount"]); parseErr == nil {
		rec.TotalAmount = &total
	}

	for i, raw := range items {
		item := raw.(map[string]any)
		var li model.LineItem

		if li.Item, err = stringField(item["item"], fmt.Sprintf("line_items[%d].item", i)); err != nil {
			return nil, err
		}
		if li.Category, err = stringField(item["category"], fmt.Sprintf("line_items[%d].category", i)); err != nil {
			return nil, err
		}
		price, priceErr := numberField(item["price"])
		if priceErr != nil {
			return nil, &ValidationError{Kind: KindWrongType, Field: fmt.Sprintf("line_items[%d].price", i), Item: raw, Index: i, Err: priceErr}
		}
		li.Price = price

		rec.LineItems = append(rec.LineItems, li)
	}

	return rec, nil
}

func missingKeys(obj map[string]any, keys []string) []string {
	var missing []string
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func stringField(v any, field string) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", &ValidationError{Kind: KindWrongType, Field: field}
	}
}

func numberField(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return ParsePrice(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: not a number: %v", ErrInvalidPrice, v)
	}
}
