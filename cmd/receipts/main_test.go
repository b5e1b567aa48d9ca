package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-receipts-must-flow/internal/cli"
	"github.com/Veraticus/the-receipts-must-flow/internal/engine"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// useWorkspace points the workspace at a fresh temp dir.
func useWorkspace(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	viper.Set("workspace.dir", dir)
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "ocr", "structure", "append", "categories", "serve", "auth", "history", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestIngestFlags(t *testing.T) {
	cmd := ingestCmd()
	for _, name := range []string{"dry-run", "review", "json", "theme"} {
		assert.NotNil(t, cmd.Flag(name), "flag %s should exist", name)
	}

	_, err := execute(t, cmd, "")
	require.Error(t, err, "at least one image is required")
}

func TestCategoriesCommands(t *testing.T) {
	useWorkspace(t)

	out, err := execute(t, categoriesCmd(), "", "list", "--json")
	require.NoError(t, err)
	var listed map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, model.DefaultCategories, listed["categories"])

	out, err = execute(t, categoriesCmd(), "", "add", "Pets")
	require.NoError(t, err)
	assert.Contains(t, out, `Added "Pets"`)

	out, err = execute(t, categoriesCmd(), "", "add", "Dairy")
	require.NoError(t, err)
	assert.Contains(t, out, `"Dairy" already exists`)

	out, err = execute(t, categoriesCmd(), "n\n", "remove", "Pets")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing removed")

	out, err = execute(t, categoriesCmd(), "y\n", "remove", "Pets")
	require.NoError(t, err)
	assert.Contains(t, out, `Removed "Pets"`)

	out, err = execute(t, categoriesCmd(), "", "remove", "--yes", "Pets")
	require.NoError(t, err)
	assert.Contains(t, out, `"Pets" not found`)
}

func TestHistoryWithoutLedger(t *testing.T) {
	useWorkspace(t)

	_, err := execute(t, historyCmd(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no append ledger yet")
}

func TestArgOrStdin(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		want  string
		args  []string
	}{
		{name: "argument", args: []string{"MILK 3.50"}, want: "MILK 3.50"},
		{name: "dash reads stdin", args: []string{"-"}, stdin: "BREAD 2.20\n", want: "BREAD 2.20"},
		{name: "no argument reads stdin", stdin: `{"vendor":"A"}` + "\n\n", want: `{"vendor":"A"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader(tt.stdin))
			got, err := argOrStdin(cmd, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountResult(t *testing.T) {
	var stats cli.BatchStats

	countResult(&stats, &engine.IngestResult{Result: &model.AppendResult{Status: model.AppendStatusSuccess, RowsAdded: 3}}, false)
	countResult(&stats, &engine.IngestResult{Result: &model.AppendResult{Status: model.AppendStatusDuplicate}}, false)
	countResult(&stats, &engine.IngestResult{}, true)

	assert.Equal(t, cli.BatchStats{Appended: 1, RowsAdded: 3, Duplicates: 1, Previewed: 1}, stats)
}

func TestPrintIngestOutputs(t *testing.T) {
	outputs := []ingestOutput{
		{
			Image: "milk.jpg",
			IngestResult: &engine.IngestResult{
				Rows:   []model.SpreadsheetRow{{Date: "01/02/2024", Vendor: "Mock Market", Item: "MILK", Price: decimal.RequireFromString("2.5"), Category: "Dairy"}},
				Result: &model.AppendResult{Status: model.AppendStatusSuccess, RowsAdded: 1},
			},
		},
		{
			Image:        "blurry.jpg",
			IngestResult: &engine.IngestResult{},
			Failure:      &engine.ErrorPayload{Error: "missing required fields: line_items"},
		},
	}

	var human bytes.Buffer
	require.NoError(t, printIngestOutputs(&human, outputs, false))
	assert.Contains(t, human.String(), "milk.jpg")
	assert.Contains(t, human.String(), "2.50")
	assert.Contains(t, human.String(), "Appended 1 row")
	assert.Contains(t, human.String(), "missing required fields: line_items")

	var machine bytes.Buffer
	require.NoError(t, printIngestOutputs(&machine, outputs, true))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(machine.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "milk.jpg", decoded[0]["image"])
	assert.Contains(t, decoded[0], "rows")
	assert.Equal(t, map[string]any{"error": "missing required fields: line_items"}, decoded[1]["failure"])
}

func TestEnvKeyReplacer(t *testing.T) {
	assert.Equal(t, "LLM_PROVIDER", envKeyReplacer.Replace("LLM.PROVIDER"))
	assert.Equal(t, "append_dedupe", envKeyReplacer.Replace("append.dedupe"))
}
