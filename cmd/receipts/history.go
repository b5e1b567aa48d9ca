package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-receipts-must-flow/internal/cli"
	"github.com/Veraticus/the-receipts-must-flow/internal/common"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently appended receipts",
		Long: `List the most recent batches recorded in the append ledger. The ledger is
only written when append.dedupe is enabled.`,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 20, "number of entries to show")
	cmd.Flags().Bool("json", false, "Print entries as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd.Context(), needs{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := os.Stat(a.workspace.LedgerPath); os.IsNotExist(err) {
		return common.NewUserError("no append ledger yet; enable append.dedupe to record appended receipts", err)
	}

	ledger, err := openLedger(cmd.Context(), a.workspace.LedgerPath)
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()

	entries, err := ledger.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	return printLine(cmd, cli.FormatBatches(entries))
}
