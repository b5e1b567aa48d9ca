package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Veraticus/the-receipts-must-flow/internal/receipt"
)

// Tool names exposed to agents.
const (
	ToolExtractReceiptText   = "extract_receipt_text"
	ToolStructureReceiptText = "structure_receipt_text"
	ToolAppendToSheet        = "append_to_sheet"
	ToolAddCategory          = "add_category"
	ToolRemoveCategory       = "remove_category"
)

// ToolDefinition describes one tool for discovery.
type ToolDefinition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Args        []string `json:"args"`
}

var toolDefinitions = []ToolDefinition{
	{
		Name:        ToolExtractReceiptText,
		Description: `Extract raw text from a receipt image. Returns {"raw_text": "..."}.`,
		Args:        []string{"image_path"},
	},
	{
		Name:        ToolStructureReceiptText,
		Description: "Convert receipt text into JSON with vendor, date, total_amount and categorized line_items.",
		Args:        []string{"raw_text"},
	},
	{
		Name:        ToolAppendToSheet,
		Description: `Append structured receipt JSON to the spreadsheet. Returns {"status": "success", "rows_added": N}.`,
		Args:        []string{"structured_json"},
	},
	{
		Name:        ToolAddCategory,
		Description: "Add a spending category. Status is added or exists.",
		Args:        []string{"new_category"},
	},
	{
		Name:        ToolRemoveCategory,
		Description: "Remove a spending category. Status is removed or not_found.",
		Args:        []string{"category"},
	},
}

// Tools exposes the engine as string-in, JSON-string-out operations.
// No method returns an error or panics; failures are reported as
// {"error": ..., "raw": ...} documents.
type Tools struct {
	engine *Engine
	logger *slog.Logger
}

// NewTools wraps an engine.
func NewTools(engine *Engine, logger *slog.Logger) *Tools {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{engine: engine, logger: logger}
}

// Definitions lists the available tools sorted by name.
func (t *Tools) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, len(toolDefinitions))
	copy(defs, toolDefinitions)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

type categoryResponse struct {
	Status     string   `json:"status"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
}

// ExtractReceiptText runs OCR on an image.
func (t *Tools) ExtractReceiptText(ctx context.Context, imagePath string) string {
	return t.run(ToolExtractReceiptText, func() any {
		text, err := t.engine.ExtractText(ctx, imagePath)
		if err != nil {
			return NewErrorPayload(err)
		}
		return map[string]string{"raw_text": text}
	})
}

// StructureReceiptText returns the classifier output unchanged, apart from
// code fences. It is not guaranteed to be valid JSON.
func (t *Tools) StructureReceiptText(ctx context.Context, rawText string) (out string) {
	defer t.recoverInto(ToolStructureReceiptText, &out)

	structured, err := t.engine.Structure(ctx, rawText)
	if err != nil {
		return t.encode(NewErrorPayload(err))
	}
	return structured
}

// AppendToSheet validates structured JSON and appends its rows. Code fences
// around the document are ignored, as for StructureReceiptText.
func (t *Tools) AppendToSheet(ctx context.Context, structuredJSON string) string {
	return t.run(ToolAppendToSheet, func() any {
		result, err := t.engine.AppendJSON(ctx, unfence(structuredJSON))
		if err != nil {
			return NewErrorPayload(err)
		}
		return result
	})
}

// AddCategory adds a category and reports the resulting set.
func (t *Tools) AddCategory(ctx context.Context, name string) string {
	return t.run(ToolAddCategory, func() any {
		res, err := t.engine.AddCategory(ctx, name)
		if err != nil {
			return NewErrorPayload(err)
		}
		return categoryResponse{Status: string(res.Status), Category: res.Category, Categories: res.Categories.Names()}
	})
}

// RemoveCategory removes a category and reports the resulting set.
func (t *Tools) RemoveCategory(ctx context.Context, name string) string {
	return t.run(ToolRemoveCategory, func() any {
		res, err := t.engine.RemoveCategory(ctx, name)
		if err != nil {
			return NewErrorPayload(err)
		}
		return categoryResponse{Status: string(res.Status), Category: res.Category, Categories: res.Categories.Names()}
	})
}

// Call dispatches a tool by name. Argument names follow Definitions; "name"
// is accepted for both category tools.
func (t *Tools) Call(ctx context.Context, name string, args map[string]string) string {
	arg := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := args[k]; ok {
				return v, true
			}
		}
		return "", false
	}
	missing := func(key string) string {
		return t.encode(ErrorPayload{Error: fmt.Sprintf("missing argument %q for tool %s", key, name)})
	}

	switch name {
	case ToolExtractReceiptText:
		v, ok := arg("image_path")
		if !ok {
			return missing("image_path")
		}
		return t.ExtractReceiptText(ctx, v)
	case ToolStructureReceiptText:
		v, ok := arg("raw_text")
		if !ok {
			return missing("raw_text")
		}
		return t.StructureReceiptText(ctx, v)
	case ToolAppendToSheet:
		v, ok := arg("structured_json")
		if !ok {
			return missing("structured_json")
		}
		return t.AppendToSheet(ctx, v)
	case ToolAddCategory:
		v, ok := arg("new_category", "name")
		if !ok {
			return missing("new_category")
		}
		return t.AddCategory(ctx, v)
	case ToolRemoveCategory:
		v, ok := arg("category", "name")
		if !ok {
			return missing("category")
		}
		return t.RemoveCategory(ctx, v)
	default:
		return t.encode(ErrorPayload{Error: fmt.Sprintf("unknown tool %q", name)})
	}
}

// unfence strips a surrounding code fence. Unfenced input is returned as
// given so error payloads echo exactly what the caller sent.
func unfence(s string) string {
	if strings.HasPrefix(strings.TrimSpace(s), "```") {
		return receipt.StripCodeFence(s)
	}
	return s
}

func (t *Tools) run(tool string, fn func() any) (out string) {
	defer t.recoverInto(tool, &out)
	return t.encode(fn())
}

func (t *Tools) recoverInto(tool string, out *string) {
	if r := recover(); r != nil {
		t.logger.Error("tool panicked", "tool", tool, "panic", r)
		*out = t.encode(ErrorPayload{Error: fmt.Sprintf("internal error: %v", r)})
	}
}

// encode renders v as two-space indented JSON without HTML escaping.
func (t *Tools) encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		t.logger.Error("failed to encode tool output", "error", err)
		return `{"error": "failed to encode output"}`
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
