package receipt

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		wantErr     error
		name        string
		input       string
		wantKind    Kind
		wantMissing []string
		wantField   string
		wantIndex   int
	}{
		{
			name:     "not JSON",
			input:    `vendor: shop`,
			wantErr:  common.ErrMalformedJSON,
			wantKind: KindMalformedJSON,
		},
		{
			name:     "JSON array",
			input:    `[{"vendor": "shop"}]`,
			wantErr:  common.ErrMalformedJSON,
			wantKind: KindMalformedJSON,
		},
		{
			name:     "trailing garbage",
			input:    `{"vendor": "a", "date": "b", "line_items": []} extra`,
			wantErr:  common.ErrMalformedJSON,
			wantKind: KindMalformedJSON,
		},
		{
			name:        "missing line_items only",
			input:       `{"vendor": "Shop", "date": "01/02/2024"}`,
			wantErr:     common.ErrMissingFields,
			wantKind:    KindMissingFields,
			wantMissing: []string{"line_items"},
		},
		{
			name:        "missing several in canonical order",
			input:       `{"line_items": [], "total_amount": 3}`,
			wantErr:     common.ErrMissingFields,
			wantKind:    KindMissingFields,
			wantMissing: []string{"vendor", "date"},
		},
		{
			name:      "line_items not an array",
			input:     `{"vendor": "Shop", "date": "d", "line_items": {"item": "A"}}`,
			wantErr:   common.ErrWrongType,
			wantKind:  KindWrongType,
			wantField: "line_items",
		},
		{
			name:        "line item missing category",
			input:       `{"vendor": "Shop", "date": "d", "line_items": [{"item": "A", "price": 1, "category": "Snacks"}, {"item": "B", "price": 2}]}`,
			wantErr:     common.ErrMissingLineItemFields,
			wantKind:    KindMissingLineItemFields,
			wantMissing: []string{"category"},
			wantIndex:   1,
		},
		{
			name:        "line item not an object",
			input:       `{"vendor": "Shop", "date": "d", "line_items": ["MILK 3.50"]}`,
			wantErr:     common.ErrMissingLineItemFields,
			wantKind:    KindMissingLineItemFields,
			wantMissing: []string{"item", "price", "category"},
		},
		{
			name:      "vendor not a string",
			input:     `{"vendor": 42, "date": "d", "line_items": []}`,
			wantErr:   common.ErrWrongType,
			wantKind:  KindWrongType,
			wantField: "vendor",
		},
		{
			name:      "price not numeric",
			input:     `{"vendor": "Shop", "date": "d", "line_items": [{"item": "A", "price": "free", "category": "Snacks"}]}`,
			wantErr:   common.ErrWrongType,
			wantKind:  KindWrongType,
			wantField: "line_items[0].price",
		},
		{
			name:      "price is null",
			input:     `{"vendor": "Shop", "date": "d", "line_items": [{"item": "A", "price": null, "category": "Snacks"}]}`,
			wantErr:   common.ErrWrongType,
			wantKind:  KindWrongType,
			wantField: "line_items[0].price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Validate([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, tt.wantErr)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantKind, vErr.Kind)
			assert.Equal(t, tt.wantMissing, vErr.Missing)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Equal(t, tt.wantIndex, vErr.Index)
		})
	}
}

func TestValidateReportsOffendingItem(t *testing.T) {
	_, err := Validate([]byte(`{"vendor": "Shop", "date": "d", "line_items": [{"item": "EGGS", "price": 2}]}`))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	item, ok := vErr.Item.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EGGS", item["item"])
	assert.Contains(t, err.Error(), "category")
}

func TestValidateAccepts(t *testing.T) {
	input := `{
		"vendor": "Corner Shop",
		"date": "01/02/2024",
		"total_amount": 2.50,
		"line_items": [
			{"item": "MILK", "price": 3.50, "category": "Dairy"},
			{"item": "DISCOUNT", "price": -1.00, "category": "Dairy"},
			{"item": "BREAD", "price": "1,20", "category": "Bakery"}
		]
	}`

	rec, err := Validate([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, "Corner Shop", rec.Vendor)
	assert.Equal(t, "01/02/2024", rec.Date)
	require.NotNil(t, rec.TotalAmount)
	assert.True(t, rec.TotalAmount.Equal(decimal.RequireFromString("2.5")))
	require.Len(t, rec.LineItems, 3)
	assert.True(t, rec.LineItems[0].Price.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, rec.LineItems[1].Price.Equal(decimal.RequireFromString("-1")))
	assert.True(t, rec.LineItems[2].Price.Equal(decimal.RequireFromString("1.2")))
	assert.Equal(t, "Bakery", rec.LineItems[2].Category)
}

func TestValidateOptionalTotal(t *testing.T) {
	rec, err := Validate([]byte(`{"vendor": "Shop", "date": "d", "line_items": [], "total_amount": "n/a"}`))
	require.NoError(t, err)
	assert.Nil(t, rec.TotalAmount)
	assert.Empty(t, rec.LineItems)
}

func TestValidateValueDecoded(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"vendor": null, "date": "d", "line_items": [{"item": "A", "price": 4, "category": "Meat"}]}`), &v))

	rec, err := ValidateValue(v)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Vendor)
	assert.True(t, rec.LineItems[0].Price.Equal(decimal.NewFromInt(4)))
}
