// Package cli provides styled terminal output for the receipts command.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#F4A259") // receipt-paper amber
	SubtleColor  = lipgloss.Color("#666666")
	borderColor  = lipgloss.Color("#333")
)

var (
	// SubtleStyle de-emphasizes secondary text such as empty-state notes.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)
	// BoldStyle is the base for headers.
	BoldStyle = lipgloss.NewStyle().Bold(true)

	titleStyle  = BoldStyle.Foreground(PrimaryColor)
	promptStyle = BoldStyle.Foreground(PrimaryColor)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)
)

// Icons.
const (
	ReceiptIcon = "🧾"
	SheetIcon   = "📊"
	ErrorIcon   = "✗"
)

// messageKind pairs a status icon with its color.
type messageKind struct {
	icon  string
	color lipgloss.Color
}

var (
	successKind = messageKind{icon: "✓", color: "#4ECDC4"}
	errorKind   = messageKind{icon: ErrorIcon, color: "#FF6B6B"}
	warningKind = messageKind{icon: "⚠️", color: "#FFE66D"}
	infoKind    = messageKind{icon: "ℹ️", color: "#95E1D3"}
)

func (k messageKind) render(message string) string {
	return lipgloss.NewStyle().Foreground(k.color).Render(k.icon + " " + message)
}

// FormatSuccess reports a completed operation, such as rows appended.
func FormatSuccess(message string) string { return successKind.render(message) }

// FormatError reports a failed receipt or command.
func FormatError(message string) string { return errorKind.render(message) }

// FormatWarning reports something the user should look at, such as a duplicate batch.
func FormatWarning(message string) string { return warningKind.render(message) }

// FormatInfo reports neutral progress.
func FormatInfo(message string) string { return infoKind.render(message) }

// FormatTitle renders a section heading with the receipt icon.
func FormatTitle(title string) string {
	return titleStyle.MarginBottom(1).Render(ReceiptIcon + " " + title)
}

// FormatPrompt renders a question awaiting input.
func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox draws content under title inside a rounded border.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content))
}
