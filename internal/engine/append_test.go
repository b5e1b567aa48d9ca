package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/sheets"
	"github.com/Veraticus/the-receipts-must-flow/internal/testutil"
)

func testRecord(items ...model.LineItem) model.ReceiptRecord {
	rec := testutil.NewReceipt("Corner Shop").Build()
	rec.LineItems = items
	return rec
}

func lineItem(item, price, category string) model.LineItem {
	return model.LineItem{Item: item, Price: decimal.RequireFromString(price), Category: category}
}

func TestAppenderAppend(t *testing.T) {
	tests := []struct {
		name     string
		rec      model.ReceiptRecord
		wantRows []model.SpreadsheetRow
		wantCall bool
	}{
		{
			name:     "no items",
			rec:      testRecord(),
			wantCall: false,
		},
		{
			name: "one row per item",
			rec:  testRecord(lineItem("Milk", "1.20", "Dairy"), lineItem("Bread", "2.00", "Bakery")),
			wantRows: []model.SpreadsheetRow{
				{Date: "14/03/2024", Vendor: "Corner Shop", Item: "Milk", Price: decimal.RequireFromString("1.20"), Category: "Dairy"},
				{Date: "14/03/2024", Vendor: "Corner Shop", Item: "Bread", Price: decimal.RequireFromString("2.00"), Category: "Bakery"},
			},
			wantCall: true,
		},
		{
			name: "discount merges into previous row",
			rec:  testRecord(lineItem("A", "10", "Snacks"), lineItem("B", "-2", "Meat")),
			wantRows: []model.SpreadsheetRow{
				{Date: "14/03/2024", Vendor: "Corner Shop", Item: "A", Price: decimal.NewFromInt(8), Category: "Snacks"},
			},
			wantCall: true,
		},
		{
			name: "leading negative is kept",
			rec:  testRecord(lineItem("A", "-5", "Snacks")),
			wantRows: []model.SpreadsheetRow{
				{Date: "14/03/2024", Vendor: "Corner Shop", Item: "A", Price: decimal.NewFromInt(-5), Category: "Snacks"},
			},
			wantCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := sheets.NewMockWriter()
			appender := NewAppender(writer, nil, nil)

			result, err := appender.Append(context.Background(), tt.rec)
			require.NoError(t, err)

			assert.Equal(t, model.AppendStatusSuccess, result.Status)
			assert.Equal(t, len(tt.wantRows), result.RowsAdded)

			calls := writer.GetAppendCalls()
			if !tt.wantCall {
				assert.Empty(t, calls)
				return
			}
			require.Len(t, calls, 1)
			require.Len(t, calls[0].Rows, len(tt.wantRows))
			for i, want := range tt.wantRows {
				got := calls[0].Rows[i]
				assert.True(t, want.Price.Equal(got.Price), "row %d price: want %s got %s", i, want.Price, got.Price)
				want.Price, got.Price = decimal.Zero, decimal.Zero
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestAppenderPersistenceError(t *testing.T) {
	writer := sheets.NewMockWriter()
	writer.SetAppendError(errors.New("permission denied"))
	appender := NewAppender(writer, nil, nil)

	_, err := appender.Append(context.Background(), testRecord(lineItem("Milk", "1", "Dairy")))
	require.ErrorIs(t, err, common.ErrPersistence)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "mock/Sheet1", persistErr.Target)
	assert.Contains(t, err.Error(), "permission denied")

	// No retry.
	assert.Len(t, writer.GetAppendCalls(), 1)
}

func TestAppenderDedupe(t *testing.T) {
	ctx := context.Background()
	ledger := testutil.NewLedger(t)

	writer := sheets.NewMockWriter()
	appender := NewAppender(writer, ledger, nil)
	rec := testRecord(lineItem("Milk", "1.20", "Dairy"))

	first, err := appender.Append(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, model.AppendResult{Status: model.AppendStatusSuccess, RowsAdded: 1}, first)

	second, err := appender.Append(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, model.AppendResult{Status: model.AppendStatusDuplicate, RowsAdded: 0}, second)
	assert.Len(t, writer.GetAppendCalls(), 1)

	// Same rows to a different target are not duplicates.
	other := sheets.NewMockWriter()
	other.TargetName = "other/Sheet1"
	third, err := NewAppender(other, ledger, nil).Append(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, model.AppendStatusSuccess, third.Status)

	recent, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestAppenderDedupeSkipsRecordOnFailure(t *testing.T) {
	ctx := context.Background()
	ledger := testutil.NewLedger(t)

	writer := sheets.NewMockWriter()
	writer.SetAppendError(errors.New("boom"))
	rec := testRecord(lineItem("Milk", "1.20", "Dairy"))

	_, err := NewAppender(writer, ledger, nil).Append(ctx, rec)
	require.Error(t, err)

	seen, err := ledger.Seen(ctx, model.BatchHash(writer.Target(), []model.SpreadsheetRow{
		{Date: rec.Date, Vendor: rec.Vendor, Item: "Milk", Price: decimal.RequireFromString("1.20"), Category: "Dairy"},
	}))
	require.NoError(t, err)
	assert.False(t, seen)
}
