package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategoryName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims whitespace", in: "  Dairy\t", want: "Dairy"},
		{name: "keeps case", in: "dairy", want: "dairy"},
		{name: "composes decomposed accents", in: "Cafe\u0301", want: "Caf\u00e9"},
		{name: "blank", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategoryName(tt.in))
		})
	}
}

func TestNewCategorySet(t *testing.T) {
	set := NewCategorySet(" Dairy", "Meat", "Dairy ", "", "Snacks")

	assert.Equal(t, []string{"Dairy", "Meat", "Snacks"}, set.Names())
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(" Meat "))
	assert.False(t, set.Contains("meat"))
	assert.Equal(t, 2, set.Index("Snacks"))
	assert.Equal(t, -1, set.Index("Bakery"))
}

func TestCategorySetWithWithout(t *testing.T) {
	base := NewCategorySet("Dairy", "Meat")

	added := base.With("Bakery")
	assert.Equal(t, []string{"Dairy", "Meat", "Bakery"}, added.Names())
	assert.Equal(t, []string{"Dairy", "Meat"}, base.Names(), "receiver must not change")

	same := base.With("Dairy")
	assert.True(t, same.Equal(base))

	removed := added.Without("Meat")
	assert.Equal(t, []string{"Dairy", "Bakery"}, removed.Names())

	missing := base.Without("Clothes")
	assert.True(t, missing.Equal(base))
}

func TestCategorySetNamesIsCopy(t *testing.T) {
	set := NewCategorySet("Dairy")
	names := set.Names()
	names[0] = "Changed"

	assert.Equal(t, []string{"Dairy"}, set.Names())
}

func TestDefaultCategorySet(t *testing.T) {
	set := DefaultCategorySet()

	assert.Equal(t, 9, set.Len())
	assert.Equal(t, DefaultCategories, set.Names())
}

func TestZeroCategorySet(t *testing.T) {
	var set CategorySet

	assert.Equal(t, 0, set.Len())
	assert.NotNil(t, set.Names())
	assert.False(t, set.Contains("Dairy"))
}
