package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Prices serialize as JSON numbers, not strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// LineItem is one purchased entry on a receipt.
type LineItem struct {
	Item     string          `json:"item"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// ReceiptRecord is the structured form of a single receipt.
// It only lives for the duration of one ingestion; its rows are what get persisted.
type ReceiptRecord struct {
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Vendor      string           `json:"vendor"`
	Date        string           `json:"date"`
	LineItems   []LineItem       `json:"line_items"`
}

// SpreadsheetRow is the unit of persistence: [date, vendor, item, price, category].
type SpreadsheetRow struct {
	Date     string          `json:"date"`
	Vendor   string          `json:"vendor"`
	Item     string          `json:"item"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// Values renders the row in column order for a spreadsheet append.
func (r SpreadsheetRow) Values() []any {
	return []any{r.Date, r.Vendor, r.Item, r.Price.InexactFloat64(), r.Category}
}

// Append statuses.
const (
	AppendStatusSuccess   = "success"
	AppendStatusDuplicate = "duplicate"
)

// AppendResult reports the outcome of appending one batch.
type AppendResult struct {
	Status    string `json:"status"`
	RowsAdded int    `json:"rows_added"`
}

// BatchEntry records an appended batch in the ledger.
type BatchEntry struct {
	AppendedAt  time.Time `json:"appended_at"`
	Hash        string    `json:"hash"`
	Target      string    `json:"target"`
	Vendor      string    `json:"vendor"`
	ReceiptDate string    `json:"receipt_date"`
	Rows        int       `json:"rows"`
}

// BatchHash returns a content hash identifying a batch of rows written to target.
// Prices hash at full precision with trailing zeros dropped.
func BatchHash(target string, rows []SpreadsheetRow) string {
	var b strings.Builder
	b.WriteString(target)
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%s\x1f%s\x1f%s\x1f%s\x1f%s", r.Date, r.Vendor, r.Item, r.Price.String(), r.Category)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum)
}
