package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// MockWriter is an in-memory RowWriter for tests and dry runs.
type MockWriter struct {
	AppendFunc  func(ctx context.Context, rows []model.SpreadsheetRow) (int, error)
	TargetName  string
	AppendCalls []AppendCall
	Rows        []model.SpreadsheetRow
	mu          sync.Mutex
}

// AppendCall represents a single call to AppendRows.
type AppendCall struct {
	Error error
	Rows  []model.SpreadsheetRow
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{TargetName: "mock/Sheet1"}
}

// Target implements service.RowWriter.
func (m *MockWriter) Target() string {
	return m.TargetName
}

// AppendRows records the batch and, unless AppendFunc fails, keeps the rows.
func (m *MockWriter) AppendRows(ctx context.Context, rows []model.SpreadsheetRow) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch := make([]model.SpreadsheetRow, len(rows))
	copy(batch, rows)

	n, err := len(rows), error(nil)
	if m.AppendFunc != nil {
		n, err = m.AppendFunc(ctx, batch)
	}

	m.AppendCalls = append(m.AppendCalls, AppendCall{Rows: batch, Error: err})
	if err == nil {
		m.Rows = append(m.Rows, batch...)
	}

	return n, err
}

// SetAppendError configures the mock to fail every AppendRows call with err.
func (m *MockWriter) SetAppendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendFunc = func(_ context.Context, _ []model.SpreadsheetRow) (int, error) {
		return 0, err
	}
}

// GetAppendCalls returns a copy of all append calls.
func (m *MockWriter) GetAppendCalls() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]AppendCall, len(m.AppendCalls))
	copy(calls, m.AppendCalls)
	return calls
}

// GetRows returns a copy of every row successfully appended.
func (m *MockWriter) GetRows() []model.SpreadsheetRow {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]model.SpreadsheetRow, len(m.Rows))
	copy(rows, m.Rows)
	return rows
}

var _ service.RowWriter = (*MockWriter)(nil)
