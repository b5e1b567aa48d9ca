// Package storage provides the SQLite batch ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidBatch = errors.New("invalid batch entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateEntry(entry model.BatchEntry) error {
	if strings.TrimSpace(entry.Hash) == "" {
		return fmt.Errorf("%w: hash is required", ErrInvalidBatch)
	}
	if entry.Rows < 0 {
		return fmt.Errorf("%w: negative row count %d", ErrInvalidBatch, entry.Rows)
	}
	return nil
}
