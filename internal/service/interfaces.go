// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// CategoryStatus is the outcome of a registry mutation.
type CategoryStatus string

// Registry mutation outcomes.
const (
	CategoryAdded    CategoryStatus = "added"
	CategoryExists   CategoryStatus = "exists"
	CategoryRemoved  CategoryStatus = "removed"
	CategoryNotFound CategoryStatus = "not_found"
)

// CategoryResult reports a registry mutation and the set after it.
type CategoryResult struct {
	Status     CategoryStatus    `json:"status"`
	Category   string            `json:"category"`
	Categories model.CategorySet `json:"-"`
}

// CategoryRegistry owns the durable set of valid spending categories.
type CategoryRegistry interface {
	Load(ctx context.Context) (model.CategorySet, error)
	Save(ctx context.Context, set model.CategorySet) error
	Add(ctx context.Context, name string) (CategoryResult, error)
	Remove(ctx context.Context, name string) (CategoryResult, error)
}

// TextExtractor turns a receipt image into raw OCR text.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// ReceiptStructurer asks a classifier to turn raw OCR text into a
// ReceiptRecord-shaped JSON document using the given categories.
// The output is not guaranteed to be valid JSON.
type ReceiptStructurer interface {
	Structure(ctx context.Context, rawText string, categories []string) (string, error)
}

// RowWriter appends rows to the spreadsheet in a single call.
type RowWriter interface {
	AppendRows(ctx context.Context, rows []model.SpreadsheetRow) (int, error)
	// Target identifies where rows are written, e.g. "<spreadsheet id>/<tab>".
	Target() string
}

// BatchLedger remembers which batches were already appended.
type BatchLedger interface {
	Seen(ctx context.Context, hash string) (bool, error)
	Record(ctx context.Context, entry model.BatchEntry) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	Name         string
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
