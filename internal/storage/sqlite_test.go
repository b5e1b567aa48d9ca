package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// Helper function to create a migrated test ledger.
func createTestLedger(t *testing.T) *Ledger {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")

	ledger, err := NewLedger(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	require.NoError(t, ledger.Migrate(context.Background()))
	return ledger
}

func TestNewLedgerValidation(t *testing.T) {
	_, err := NewLedger("  ")
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate(t *testing.T) {
	ledger := createTestLedger(t)
	ctx := context.Background()

	version, err := ledger.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, ledger.Migrate(ctx))

	var indexCount int
	err = ledger.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_appended_batches_appended_at'
	`).Scan(&indexCount)
	require.NoError(t, err)
	assert.Equal(t, 1, indexCount)
}

func TestSeenAndRecord(t *testing.T) {
	ledger := createTestLedger(t)
	ctx := context.Background()

	seen, err := ledger.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, seen)

	entry := model.BatchEntry{
		Hash:        "abc",
		Target:      "sheet-id/Sheet1",
		Vendor:      "Corner Shop",
		ReceiptDate: "14/03/2024",
		Rows:        2,
	}
	require.NoError(t, ledger.Record(ctx, entry))

	seen, err = ledger.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, seen)

	// Recording the same hash again keeps the original entry.
	entry.Vendor = "Other"
	require.NoError(t, ledger.Record(ctx, entry))

	recent, err := ledger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Corner Shop", recent[0].Vendor)
	assert.Equal(t, 2, recent[0].Rows)
	assert.False(t, recent[0].AppendedAt.IsZero())
}

func TestRecordValidation(t *testing.T) {
	ledger := createTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry model.BatchEntry
	}{
		{name: "missing hash", entry: model.BatchEntry{Target: "t", Rows: 1}},
		{name: "negative rows", entry: model.BatchEntry{Hash: "h", Rows: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Record(ctx, tt.entry)
			require.ErrorIs(t, err, ErrInvalidBatch)
		})
	}
}

func TestRecentOrdering(t *testing.T) {
	ledger := createTestLedger(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, hash := range []string{"first", "second", "third"} {
		require.NoError(t, ledger.Record(ctx, model.BatchEntry{
			Hash:       hash,
			Target:     "t",
			Rows:       i + 1,
			AppendedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	recent, err := ledger.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Hash)
	assert.Equal(t, "second", recent[1].Hash)
	assert.True(t, recent[0].AppendedAt.Equal(base.Add(2*time.Hour)))
}

func TestLedgerPersistsAcrossOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	ledger, err := NewLedger(dbPath)
	require.NoError(t, err)
	require.NoError(t, ledger.Migrate(ctx))
	require.NoError(t, ledger.Record(ctx, model.BatchEntry{Hash: "persisted", Target: "t", Rows: 1}))
	require.NoError(t, ledger.Close())

	reopened, err := NewLedger(dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	seen, err := reopened.Seen(ctx, "persisted")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, dbPath, reopened.Path())
}
