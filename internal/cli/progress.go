package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// BatchStats summarizes an ingest run.
type BatchStats struct {
	Duration   time.Duration
	Total      int
	Appended   int
	Duplicates int
	Previewed  int
	Failed     int
	RowsAdded  int
}

// BatchProgress reports progress across a batch of receipt images.
type BatchProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	start  time.Time
	total  int
	done   int
}

// NewBatchProgress creates a progress reporter for total images. A nil
// writer means stderr.
func NewBatchProgress(writer io.Writer, total int) *BatchProgress {
	if writer == nil {
		writer = os.Stderr
	}
	p := &BatchProgress{writer: writer, total: total, start: time.Now()}

	// A single image gets a spinner.
	size := total
	if total <= 1 {
		size = -1
	}
	p.bar = progressbar.NewOptions(size,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[yellow][bold]Reading receipts...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Begin announces the image about to be processed.
func (p *BatchProgress) Begin(imagePath string) {
	p.bar.Describe(fmt.Sprintf("[yellow][bold]%s[reset] %s", ReceiptIcon, filepath.Base(imagePath)))
}

// Step marks one image as done and returns the number processed so far.
func (p *BatchProgress) Step() int {
	p.done++
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	return p.done
}

// Finish stops the bar and prints the summary box.
func (p *BatchProgress) Finish(stats BatchStats) {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
	if stats.Duration == 0 {
		stats.Duration = time.Since(p.start)
	}
	if _, err := fmt.Fprintln(p.writer, RenderBox("Ingestion Complete", FormatBatchStats(stats))); err != nil {
		slog.Warn("Failed to write completion box", "error", err)
	}
}

// FormatBatchStats renders the body of the completion summary.
func FormatBatchStats(stats BatchStats) string {
	summary := fmt.Sprintf("%s Results:\n", SheetIcon) +
		fmt.Sprintf("  • Receipts: %d\n", stats.Total) +
		fmt.Sprintf("  • Appended: %d\n", stats.Appended) +
		fmt.Sprintf("  • Rows added: %d\n", stats.RowsAdded)
	if stats.Duplicates > 0 {
		summary += fmt.Sprintf("  • Already appended: %d\n", stats.Duplicates)
	}
	if stats.Previewed > 0 {
		summary += fmt.Sprintf("  • Previewed only: %d\n", stats.Previewed)
	}
	if stats.Failed > 0 {
		summary += fmt.Sprintf("  • Failed: %d %s\n", stats.Failed, ErrorIcon)
	}
	summary += fmt.Sprintf("  • Time taken: %s", stats.Duration.Round(time.Millisecond))
	return summary
}
