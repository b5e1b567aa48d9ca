package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-receipts-must-flow/internal/engine"
	"github.com/Veraticus/the-receipts-must-flow/internal/tui/themes"
)

// Decision is the reviewer's verdict on one receipt.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionApprove
	DecisionSkip
)

func (d Decision) String() string {
	switch d {
	case DecisionApprove:
		return "append"
	case DecisionSkip:
		return "skip"
	default:
		return "pending"
	}
}

// ReviewItem is one previewed receipt awaiting a decision.
type ReviewItem struct {
	Result    *engine.IngestResult
	ImagePath string
}

// Model holds the review screen state.
type Model struct {
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	table     table.Model
	items     []ReviewItem
	decisions []Decision
	config    Config
	current   int
	width     int
	height    int
	aborted   bool
	quitting  bool
}

var columns = []struct {
	title string
	width int
}{
	{"Date", 12},
	{"Vendor", 20},
	{"Item", 28},
	{"Price", 10},
	{"Category", 16},
}

// newModel creates a new model with the given configuration.
func newModel(items []ReviewItem, cfg Config) Model {
	cols := make([]table.Column, len(columns))
	width := 0
	for i, c := range columns {
		cols[i] = table.Column{Title: c.title, Width: c.width}
		width += c.width + 2 // cell padding
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithWidth(width),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header.Padding(0, 1)
	styles.Selected = cfg.Theme.Selected
	t.SetStyles(styles)

	h := help.New()
	h.ShowAll = false

	m := Model{
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      h,
		table:     t,
		items:     items,
		decisions: make([]Decision, len(items)),
		config:    cfg,
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.resize()
	m.loadRows()
	return m
}

// NewModel creates a review model for items.
func NewModel(items []ReviewItem, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(items, cfg)
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.ForceQuit):
			m.aborted = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Quit):
			m.decideRemaining(DecisionSkip)
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil

		case key.Matches(msg, m.keymap.Approve):
			return m.decide(DecisionApprove)

		case key.Matches(msg, m.keymap.Skip):
			return m.decide(DecisionSkip)

		case key.Matches(msg, m.keymap.ApproveAll):
			m.decideRemaining(DecisionApprove)
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Next):
			m.move(1)
			return m, nil

		case key.Matches(msg, m.keymap.Prev):
			m.move(-1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// decide records d for the current receipt and moves to the next undecided
// one, quitting when none is left.
func (m Model) decide(d Decision) (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		m.quitting = true
		return m, tea.Quit
	}
	m.decisions[m.current] = d

	next := m.nextPending()
	if next < 0 {
		m.quitting = true
		return m, tea.Quit
	}
	m.current = next
	m.loadRows()
	return m, nil
}

func (m *Model) decideRemaining(d Decision) {
	for i, existing := range m.decisions {
		if existing == DecisionPending {
			m.decisions[i] = d
		}
	}
}

func (m *Model) nextPending() int {
	n := len(m.items)
	for step := 1; step <= n; step++ {
		i := (m.current + step) % n
		if m.decisions[i] == DecisionPending {
			return i
		}
	}
	return -1
}

func (m *Model) move(delta int) {
	n := len(m.items)
	if n == 0 {
		return
	}
	m.current = (m.current + delta + n) % n
	m.loadRows()
}

func (m *Model) loadRows() {
	if len(m.items) == 0 || m.items[m.current].Result == nil {
		m.table.SetRows(nil)
		return
	}
	src := m.items[m.current].Result.Rows
	rows := make([]table.Row, len(src))
	for i, r := range src {
		rows[i] = table.Row{r.Date, r.Vendor, r.Item, r.Price.StringFixed(2), r.Category}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// resize fits the table between the header block and the help footer.
func (m *Model) resize() {
	const chrome = 8
	footer := 1
	if m.help.ShowAll {
		footer = 4
	}
	h := m.height - chrome - footer
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.help.Width = m.width
}

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if len(m.items) == 0 {
		return m.theme.StatusPending.Render("No receipts to review.") + "\n"
	}

	item := m.items[m.current]
	var b strings.Builder

	b.WriteString(m.theme.Title.Render(fmt.Sprintf("🧾 Review receipt %d of %d", m.current+1, len(m.items))))
	b.WriteString("\n")
	b.WriteString(m.renderSummary(item))
	b.WriteString("\n\n")
	b.WriteString(m.theme.BorderedBox.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(m.renderDecision(m.decisions[m.current]))
	b.WriteString("  ")
	b.WriteString(m.theme.Subtitle.Render(m.progressLine()))

	if m.config.ShowHelp {
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keymap))
	}
	return b.String()
}

func (m Model) renderSummary(item ReviewItem) string {
	image := m.theme.Subtitle.Render(filepath.Base(item.ImagePath))
	if item.Result == nil || item.Result.Record == nil {
		return image
	}
	rec := item.Result.Record

	sum := decimal.Zero
	for _, r := range item.Result.Rows {
		sum = sum.Add(r.Price)
	}

	parts := []string{
		m.theme.Bold.Render(rec.Vendor),
		m.theme.Normal.Render(rec.Date),
		m.theme.Normal.Render(fmt.Sprintf("%d rows", len(item.Result.Rows))),
		m.theme.Normal.Render("sum " + sum.StringFixed(2)),
	}
	if rec.TotalAmount != nil && !rec.TotalAmount.Equal(sum) {
		parts = append(parts, m.theme.StatusWarning.Render("printed total "+rec.TotalAmount.StringFixed(2)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, image, "  ", strings.Join(parts, m.theme.Subtitle.Render(" · ")))
}

func (m Model) renderDecision(d Decision) string {
	switch d {
	case DecisionApprove:
		return m.theme.StatusSuccess.Render("✓ will append")
	case DecisionSkip:
		return m.theme.StatusWarning.Render("⏭ will skip")
	default:
		return m.theme.StatusPending.Render("undecided")
	}
}

func (m Model) progressLine() string {
	decided := 0
	for _, d := range m.decisions {
		if d != DecisionPending {
			decided++
		}
	}
	return fmt.Sprintf("%d of %d decided", decided, len(m.decisions))
}

// Decisions returns a copy of the decision for each item, in input order.
func (m Model) Decisions() []Decision {
	out := make([]Decision, len(m.decisions))
	copy(out, m.decisions)
	return out
}

// Aborted reports whether the reviewer aborted with Ctrl+C.
func (m Model) Aborted() bool {
	return m.aborted
}
