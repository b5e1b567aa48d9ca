package receipt

import (
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// BuildRows converts line items into spreadsheet rows in receipt order.
//
// A negative price is a discount on the row emitted just before it: it is
// subtracted from that row and produces no row of its own. A negative price
// with no earlier row is emitted unchanged.
func BuildRows(rec model.ReceiptRecord) []model.SpreadsheetRow {
	rows := make([]model.SpreadsheetRow, 0, len(rec.LineItems))

	for _, li := range rec.LineItems {
		if li.Price.IsNegative() && len(rows) > 0 {
			prev := &rows[len(rows)-1]
			prev.Price = prev.Price.Sub(li.Price.Abs())
			continue
		}

		rows = append(rows, model.SpreadsheetRow{
			Date:     rec.Date,
			Vendor:   rec.Vendor,
			Item:     li.Item,
			Price:    li.Price,
			Category: li.Category,
		})
	}

	return rows
}
