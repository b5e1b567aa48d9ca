package testutil

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// ReceiptBuilder assembles receipt records for tests.
//
//	rec := testutil.NewReceipt("Corner Shop").
//		On("14/03/2024").
//		Item("Milk", "3.50", "Dairy").
//		Item("DISCOUNT", "-1.00", "Dairy").
//		Build()
type ReceiptBuilder struct {
	rec model.ReceiptRecord
}

// NewReceipt starts a receipt from vendor dated 14/03/2024.
func NewReceipt(vendor string) *ReceiptBuilder {
	return &ReceiptBuilder{rec: model.ReceiptRecord{Vendor: vendor, Date: "14/03/2024"}}
}

// On sets the receipt date.
func (b *ReceiptBuilder) On(date string) *ReceiptBuilder {
	b.rec.Date = date
	return b
}

// Item adds a line item; price must be a valid decimal.
func (b *ReceiptBuilder) Item(name, price, category string) *ReceiptBuilder {
	b.rec.LineItems = append(b.rec.LineItems, model.LineItem{
		Item:     name,
		Price:    decimal.RequireFromString(price),
		Category: category,
	})
	return b
}

// Total sets the printed total.
func (b *ReceiptBuilder) Total(amount string) *ReceiptBuilder {
	total := decimal.RequireFromString(amount)
	b.rec.TotalAmount = &total
	return b
}

// Build returns a copy of the record.
func (b *ReceiptBuilder) Build() model.ReceiptRecord {
	rec := b.rec
	rec.LineItems = append([]model.LineItem(nil), b.rec.LineItems...)
	return rec
}

// JSON renders the record the way the classifier would return it.
func (b *ReceiptBuilder) JSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(b.Build())
	if err != nil {
		t.Fatalf("failed to encode receipt: %v", err)
	}
	return string(data)
}
