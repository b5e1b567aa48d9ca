package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-receipts-must-flow/internal/cli"
	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/engine"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/tui"
	"github.com/Veraticus/the-receipts-must-flow/internal/tui/themes"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <image>...",
		Short: "Read receipt images and append their line items to the sheet",
		Long: `Run the full pipeline for each image: OCR, structuring against the current
categories, validation, discount merging and a single append per receipt.

With --dry-run nothing is written. With --review every receipt is previewed
first and only the ones you approve are appended.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Bool("dry-run", false, "Preview rows without appending")
	cmd.Flags().Bool("review", false, "Review receipts in an interactive table before appending")
	cmd.Flags().Bool("json", false, "Print results as JSON")
	cmd.Flags().String("theme", "default", "Review screen theme (default, catppuccin)")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "review")

	return cmd
}

// ingestOutput is the per-image result printed by ingest.
type ingestOutput struct {
	*engine.IngestResult
	Failure *engine.ErrorPayload `json:"failure,omitempty"`
	Image   string               `json:"image"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	review, _ := cmd.Flags().GetBool("review")
	asJSON, _ := cmd.Flags().GetBool("json")
	themeName, _ := cmd.Flags().GetString("theme")

	a, err := newApp(cmd.Context(), needs{llm: true, sheets: !dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), len(args) > 1)

	progress := cli.NewBatchProgress(cmd.ErrOrStderr(), len(args))
	stats := cli.BatchStats{Total: len(args)}
	outputs := make([]ingestOutput, 0, len(args))

	for i, image := range args {
		if ctx.Err() != nil {
			break
		}
		progress.Begin(image)

		var res *engine.IngestResult
		if dryRun || review {
			res, err = a.engine.Preview(ctx, image)
		} else {
			res, err = a.engine.Ingest(ctx, image)
		}

		out := ingestOutput{Image: image, IngestResult: res}
		if err != nil {
			payload := engine.NewErrorPayload(err)
			out.Failure = &payload
			stats.Failed++
		} else {
			countResult(&stats, res, dryRun || review)
		}
		outputs = append(outputs, out)

		progress.Step()
		interrupts.SetProgress(i+1, len(args))
	}
	progress.Finish(stats)

	if review && !interrupts.WasInterrupted() {
		if err := reviewAndAppend(ctx, a, outputs, &stats, tui.WithTheme(themes.ByName(themeName))); err != nil {
			return err
		}
		stats.Previewed = 0
		if _, err := fmt.Fprintln(cmd.ErrOrStderr(), cli.RenderBox("Review Complete", cli.FormatBatchStats(stats))); err != nil {
			a.logger.Warn("Failed to write review summary", "error", err)
		}
	}

	if err := printIngestOutputs(cmd.OutOrStdout(), outputs, asJSON); err != nil {
		return err
	}

	if interrupts.WasInterrupted() {
		return common.NewUserError("ingestion interrupted", context.Canceled)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d receipts failed", stats.Failed, stats.Total)
	}
	return nil
}

func countResult(stats *cli.BatchStats, res *engine.IngestResult, previewOnly bool) {
	if previewOnly {
		stats.Previewed++
		return
	}
	if res.Result == nil {
		return
	}
	switch res.Result.Status {
	case model.AppendStatusDuplicate:
		stats.Duplicates++
	default:
		stats.Appended++
		stats.RowsAdded += res.Result.RowsAdded
	}
}

// reviewAndAppend shows previewed receipts and appends the approved ones.
func reviewAndAppend(ctx context.Context, a *app, outputs []ingestOutput, stats *cli.BatchStats, opts ...tui.Option) error {
	var items []tui.ReviewItem
	var indexes []int
	for i, out := range outputs {
		if out.Failure == nil && out.IngestResult != nil && out.Record != nil {
			items = append(items, tui.ReviewItem{ImagePath: out.Image, Result: out.IngestResult})
			indexes = append(indexes, i)
		}
	}
	if len(items) == 0 {
		return nil
	}

	decisions, err := tui.RunReview(ctx, items, opts...)
	if err != nil {
		if errors.Is(err, tui.ErrReviewAborted) {
			return common.NewUserError("review aborted; nothing was appended", err)
		}
		return err
	}

	for i, d := range decisions {
		if d != tui.DecisionApprove {
			continue
		}
		out := &outputs[indexes[i]]
		result, err := a.engine.IngestReviewed(ctx, *out.Record)
		if err != nil {
			payload := engine.NewErrorPayload(err)
			out.Failure = &payload
			stats.Failed++
			common.LogError(err, "failed to append reviewed receipt", common.Fields{"image": out.Image})
			continue
		}
		out.Result = &result
		out.DryRun = false
		countResult(stats, out.IngestResult, false)
	}
	return nil
}

func printIngestOutputs(w io.Writer, outputs []ingestOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(outputs)
	}

	for _, out := range outputs {
		if _, err := fmt.Fprintln(w, cli.FormatTitle(out.Image)); err != nil {
			return err
		}
		if out.IngestResult != nil && len(out.Rows) > 0 {
			if _, err := fmt.Fprintln(w, cli.FormatRows(out.Rows)); err != nil {
				return err
			}
		}

		var line string
		switch {
		case out.Failure != nil:
			line = cli.FormatError(out.Failure.Error)
		case out.IngestResult != nil && out.Result != nil:
			line = cli.FormatAppendResult(*out.Result)
		default:
			line = cli.FormatInfo("Preview only; nothing appended")
		}
		if _, err := fmt.Fprintln(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
