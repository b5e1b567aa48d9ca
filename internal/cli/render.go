package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
)

// FormatRows renders spreadsheet rows as a bordered table in column order.
func FormatRows(rows []model.SpreadsheetRow) string {
	if len(rows) == 0 {
		return SubtleStyle.Render("(no rows)")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers("Date", "Vendor", "Item", "Price", "Category").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return BoldStyle.Foreground(PrimaryColor).Padding(0, 1)
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 3 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	for _, r := range rows {
		t.Row(r.Date, r.Vendor, r.Item, r.Price.StringFixed(2), r.Category)
	}

	return t.Render()
}

// FormatAppendResult summarizes an append for humans.
func FormatAppendResult(result model.AppendResult) string {
	switch result.Status {
	case model.AppendStatusDuplicate:
		return FormatWarning("Receipt already appended; nothing written")
	case model.AppendStatusSuccess:
		noun := "rows"
		if result.RowsAdded == 1 {
			noun = "row"
		}
		return FormatSuccess(fmt.Sprintf("Appended %d %s", result.RowsAdded, noun))
	default:
		return FormatInfo("Append status: " + result.Status)
	}
}

// FormatCategories renders a numbered category list.
func FormatCategories(names []string) string {
	if len(names) == 0 {
		return SubtleStyle.Render("(no categories)")
	}
	var b strings.Builder
	for i, name := range names {
		fmt.Fprintf(&b, "%s %s\n", SubtleStyle.Render(fmt.Sprintf("%2d.", i+1)), name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatBatches renders ledger entries, newest first.
func FormatBatches(entries []model.BatchEntry) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("(no appended batches recorded)")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers("Appended", "Receipt date", "Vendor", "Rows", "Target")

	for _, e := range entries {
		t.Row(e.AppendedAt.Local().Format("2006-01-02 15:04"), e.ReceiptDate, e.Vendor, fmt.Sprint(e.Rows), e.Target)
	}
	return t.Render()
}
