package model

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultCategories is the set a fresh workspace starts with.
var DefaultCategories = []string{
	"Snacks",
	"Vegetables",
	"Meat",
	"Clothes",
	"Makeup/Skincare",
	"Condiments",
	"Dairy",
	"Beverages",
	"Bakery",
}

// NormalizeCategoryName returns the comparison key for a category label.
// Labels are NFC-normalized and trimmed; case is significant.
func NormalizeCategoryName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// CategorySet is an ordered, duplicate-free list of category names.
// The zero value is an empty set. Methods never mutate the receiver.
type CategorySet struct {
	names []string
}

// NewCategorySet builds a set from names, normalizing each entry, dropping
// blanks and keeping the first occurrence of any duplicate.
func NewCategorySet(names ...string) CategorySet {
	out := make([]string, 0, len(names))
	for _, name := range names {
		key := NormalizeCategoryName(name)
		if key == "" || slices.Contains(out, key) {
			continue
		}
		out = append(out, key)
	}
	return CategorySet{names: out}
}

// DefaultCategorySet returns a new set holding DefaultCategories.
func DefaultCategorySet() CategorySet {
	return NewCategorySet(DefaultCategories...)
}

// Names returns a copy of the names in insertion order.
func (s CategorySet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of categories.
func (s CategorySet) Len() int {
	return len(s.names)
}

// Index returns the position of name in the set or -1.
func (s CategorySet) Index(name string) int {
	return slices.Index(s.names, NormalizeCategoryName(name))
}

// Contains reports whether name is a member.
func (s CategorySet) Contains(name string) bool {
	return s.Index(name) >= 0
}

// With returns a copy of the set with name appended. If name is already
// present or blank the copy is identical to s.
func (s CategorySet) With(name string) CategorySet {
	key := NormalizeCategoryName(name)
	if key == "" || s.Contains(key) {
		return CategorySet{names: s.Names()}
	}
	return CategorySet{names: append(s.Names(), key)}
}

// Without returns a copy of the set with name removed.
func (s CategorySet) Without(name string) CategorySet {
	idx := s.Index(name)
	names := s.Names()
	if idx < 0 {
		return CategorySet{names: names}
	}
	return CategorySet{names: slices.Delete(names, idx, idx+1)}
}

// Equal reports whether both sets hold the same names in the same order.
func (s CategorySet) Equal(other CategorySet) bool {
	return slices.Equal(s.names, other.names)
}

// String renders the set as a comma separated list.
func (s CategorySet) String() string {
	return strings.Join(s.names, ", ")
}
