// Package testutil provides fixtures shared by package tests: an isolated,
// migrated ledger, a seeded category registry and a fluent receipt builder.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/the-receipts-must-flow/internal/categories"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/storage"
)

// NewLedger opens a migrated ledger in a temp dir and closes it on cleanup.
func NewLedger(t *testing.T) *storage.Ledger {
	t.Helper()

	ledger, err := storage.NewLedger(filepath.Join(t.TempDir(), storage.DefaultFileName))
	if err != nil {
		t.Fatalf("failed to open test ledger: %v", err)
	}
	t.Cleanup(func() {
		if err := ledger.Close(); err != nil {
			t.Errorf("failed to close test ledger: %v", err)
		}
	})

	if err := ledger.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test ledger: %v", err)
	}
	return ledger
}

// NewRegistry returns a registry backed by a temp file. With no names it
// bootstraps the defaults on first load; otherwise it is seeded with names.
func NewRegistry(t *testing.T, names ...string) *categories.Registry {
	t.Helper()

	registry := categories.New(filepath.Join(t.TempDir(), categories.DefaultFileName), nil)
	if len(names) > 0 {
		if err := registry.Save(context.Background(), model.NewCategorySet(names...)); err != nil {
			t.Fatalf("failed to seed categories: %v", err)
		}
	}
	return registry
}
