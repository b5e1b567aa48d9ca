// Package tui implements the interactive review screen shown before
// previewed receipts are appended to the spreadsheet.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrReviewAborted is returned when the reviewer aborts with Ctrl+C.
var ErrReviewAborted = errors.New("review aborted")

// RunReview shows items and returns one decision per item, in input order.
// Items left undecided when the reviewer finishes are skipped.
func RunReview(ctx context.Context, items []ReviewItem, opts ...Option) ([]Decision, error) {
	if len(items) == 0 {
		return nil, nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if cfg.Input != nil {
		programOpts = append(programOpts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(cfg.Output))
	}

	final, err := tea.NewProgram(newModel(items, cfg), programOpts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("review screen failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected review model type %T", final)
	}
	if m.Aborted() {
		return nil, ErrReviewAborted
	}
	return m.Decisions(), nil
}
