package engine

import (
	"context"
	"strings"
	"sync"
)

// MockCollaborator is a test implementation of both the OCR engine and the
// classifier. OCR returns Text for every image; structuring returns Output
// when set, otherwise a deterministic record built from the OCR lines.
type MockCollaborator struct {
	OCRErr       error
	StructureErr error
	Text         string
	Output       string
	Vendor       string
	Date         string
	calls        []MockLLMCall
	mu           sync.Mutex
}

// MockLLMCall records details of one collaborator request.
type MockLLMCall struct {
	Input      string
	Categories []string
	Op         string
}

// NewMockCollaborator creates a mock that reads text from every image.
func NewMockCollaborator(text string) *MockCollaborator {
	return &MockCollaborator{
		Text:   text,
		Vendor: "Mock Market",
		Date:   "01/02/2024",
	}
}

// ExtractText returns the configured text.
func (m *MockCollaborator) ExtractText(_ context.Context, imagePath string) (string, error) {
	m.record(MockLLMCall{Op: "ocr", Input: imagePath})
	if m.OCRErr != nil {
		return "", m.OCRErr
	}
	return m.Text, nil
}

// Structure builds a record where each non-empty "NAME PRICE" line becomes a
// line item. Items are categorized by keyword, falling back to the first category.
func (m *MockCollaborator) Structure(_ context.Context, rawText string, categories []string) (string, error) {
	m.record(MockLLMCall{Op: "structure", Input: rawText, Categories: append([]string(nil), categories...)})
	if m.StructureErr != nil {
		return "", m.StructureErr
	}
	if m.Output != "" {
		return m.Output, nil
	}

	var b strings.Builder
	b.WriteString(`{"vendor":"` + m.Vendor + `","date":"` + m.Date + `","line_items":[`)
	first := true
	for _, line := range strings.Split(rawText, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := strings.Join(fields[:len(fields)-1], " ")
		price := fields[len(fields)-1]
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString(`{"item":"` + name + `","price":` + price + `,"category":"` + mockCategory(name, categories) + `"}`)
	}
	b.WriteString("]}")
	return b.String(), nil
}

func mockCategory(item string, categories []string) string {
	lower := strings.ToLower(item)
	var category string
	switch {
	case strings.Contains(lower, "milk") || strings.Contains(lower, "cheese"):
		category = "Dairy"
	case strings.Contains(lower, "bread") || strings.Contains(lower, "cake"):
		category = "Bakery"
	case strings.Contains(lower, "apple") || strings.Contains(lower, "banana"):
		category = "Produce"
	}
	for _, c := range categories {
		if c == category {
			return c
		}
	}
	if len(categories) > 0 {
		return categories[0]
	}
	return "Other"
}

func (m *MockCollaborator) record(call MockLLMCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// GetCalls returns all recorded calls for verification in tests.
func (m *MockCollaborator) GetCalls() []MockLLMCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]MockLLMCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CallCount returns the number of recorded calls for op.
func (m *MockCollaborator) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}
