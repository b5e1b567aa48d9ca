package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/receipt"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// Appender turns a validated record into rows and writes them in one call.
type Appender struct {
	writer service.RowWriter
	ledger service.BatchLedger
	logger *slog.Logger
}

// NewAppender creates an appender. A non-nil ledger enables duplicate detection:
// a batch whose content was already appended to the same target is skipped.
func NewAppender(writer service.RowWriter, ledger service.BatchLedger, logger *slog.Logger) *Appender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Appender{writer: writer, ledger: ledger, logger: logger}
}

// Append writes the rows derived from rec. Merged discounts do not count
// towards RowsAdded. Failures are not retried.
func (a *Appender) Append(ctx context.Context, rec model.ReceiptRecord) (model.AppendResult, error) {
	rows := receipt.BuildRows(rec)
	if len(rows) == 0 {
		return model.AppendResult{Status: model.AppendStatusSuccess, RowsAdded: 0}, nil
	}

	target := a.writer.Target()

	var hash string
	if a.ledger != nil {
		hash = model.BatchHash(target, rows)
		seen, err := a.ledger.Seen(ctx, hash)
		if err != nil {
			return model.AppendResult{}, &PersistenceError{Target: target, Err: fmt.Errorf("ledger lookup: %w", err)}
		}
		if seen {
			a.logger.Info("skipping duplicate batch",
				"vendor", rec.Vendor,
				"date", rec.Date,
				"rows", len(rows))
			return model.AppendResult{Status: model.AppendStatusDuplicate, RowsAdded: 0}, nil
		}
	}

	if _, err := a.writer.AppendRows(ctx, rows); err != nil {
		return model.AppendResult{}, &PersistenceError{Target: target, Err: err}
	}

	if a.ledger != nil {
		entry := model.BatchEntry{
			Hash:        hash,
			Target:      target,
			Vendor:      rec.Vendor,
			ReceiptDate: rec.Date,
			Rows:        len(rows),
			AppendedAt:  time.Now(),
		}
		// Rows are already written; a ledger failure only weakens dedupe.
		if err := a.ledger.Record(ctx, entry); err != nil {
			a.logger.Warn("failed to record appended batch", "error", err, "hash", hash)
		}
	}

	a.logger.Info("rows appended",
		"target", target,
		"vendor", rec.Vendor,
		"rows_added", len(rows))

	return model.AppendResult{Status: model.AppendStatusSuccess, RowsAdded: len(rows)}, nil
}
