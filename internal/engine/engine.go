// Package engine implements the receipt ingestion pipeline: OCR, structuring,
// validation, normalization and the spreadsheet append.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/the-receipts-must-flow/internal/metrics"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/receipt"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// Engine orchestrates the ingestion of receipts.
type Engine struct {
	ocr        service.TextExtractor
	classifier service.ReceiptStructurer
	registry   service.CategoryRegistry
	appender   *Appender
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Deps holds the collaborators of an Engine. Metrics and Logger are optional.
type Deps struct {
	OCR        service.TextExtractor
	Classifier service.ReceiptStructurer
	Registry   service.CategoryRegistry
	Appender   *Appender
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New creates an engine with the given dependencies.
func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ocr:        deps.OCR,
		classifier: deps.Classifier,
		registry:   deps.Registry,
		appender:   deps.Appender,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// IngestResult is the outcome of one pipeline run.
type IngestResult struct {
	Record     *model.ReceiptRecord   `json:"record,omitempty"`
	Result     *model.AppendResult    `json:"result,omitempty"`
	RawText    string                 `json:"raw_text"`
	Structured string                 `json:"structured_json"`
	Rows       []model.SpreadsheetRow `json:"rows"`
	DryRun     bool                   `json:"dry_run,omitempty"`
}

// ExtractText runs OCR on the image at imagePath.
func (e *Engine) ExtractText(ctx context.Context, imagePath string) (string, error) {
	start := time.Now()
	text, err := e.ocr.ExtractText(ctx, imagePath)
	e.metrics.ObserveStage(StageOCR, time.Since(start))
	if err != nil {
		return "", &StageError{Stage: StageOCR, Err: err}
	}
	return text, nil
}

// Structure asks the classifier to structure rawText using the current categories.
// The output is returned as written, apart from code fences.
func (e *Engine) Structure(ctx context.Context, rawText string) (string, error) {
	set, err := e.registry.Load(ctx)
	if err != nil {
		return "", &StageError{Stage: StageStructure, Err: err}
	}

	start := time.Now()
	out, err := e.classifier.Structure(ctx, rawText, set.Names())
	e.metrics.ObserveStage(StageStructure, time.Since(start))
	if err != nil {
		return "", &StageError{Stage: StageStructure, Err: err}
	}
	return receipt.StripCodeFence(out), nil
}

// Parse validates and normalizes classifier output.
func (e *Engine) Parse(structured string) (*model.ReceiptRecord, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveStage(StageValidate, time.Since(start)) }()

	decoded, err := receipt.Decode([]byte(structured))
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err, Raw: structured}
	}

	rec, err := receipt.ValidateValue(decoded)
	if err != nil {
		return nil, &StageError{Stage: StageValidate, Err: err, Raw: decoded}
	}

	normalized := receipt.Normalize(*rec)
	return &normalized, nil
}

// Append writes a validated record to the spreadsheet.
func (e *Engine) Append(ctx context.Context, rec model.ReceiptRecord) (model.AppendResult, error) {
	start := time.Now()
	result, err := e.appender.Append(ctx, rec)
	e.metrics.ObserveStage(StageAppend, time.Since(start))
	if err != nil {
		return model.AppendResult{}, &StageError{Stage: StageAppend, Err: err}
	}
	e.metrics.AddRows(result.RowsAdded)
	return result, nil
}

// AppendJSON validates structured classifier output and appends it.
func (e *Engine) AppendJSON(ctx context.Context, structured string) (model.AppendResult, error) {
	rec, err := e.Parse(structured)
	if err != nil {
		return model.AppendResult{}, err
	}
	return e.Append(ctx, *rec)
}

// Preview runs every stage except the append.
func (e *Engine) Preview(ctx context.Context, imagePath string) (*IngestResult, error) {
	res, err := e.prepare(ctx, imagePath)
	if err != nil {
		e.recordFailure(imagePath, err)
		return res, err
	}
	res.DryRun = true
	e.metrics.IncrementOutcome("dry_run")
	return res, nil
}

// Ingest runs the full pipeline for one receipt image. The first failing
// stage stops the run; partial results are returned alongside the error.
func (e *Engine) Ingest(ctx context.Context, imagePath string) (*IngestResult, error) {
	res, err := e.prepare(ctx, imagePath)
	if err != nil {
		e.recordFailure(imagePath, err)
		return res, err
	}

	result, err := e.Append(ctx, *res.Record)
	if err != nil {
		e.recordFailure(imagePath, err)
		return res, err
	}
	res.Result = &result

	e.metrics.IncrementOutcome(result.Status)
	e.logger.Info("receipt ingested",
		"image", imagePath,
		"vendor", res.Record.Vendor,
		"status", result.Status,
		"rows_added", result.RowsAdded)

	return res, nil
}

// IngestReviewed appends a record that was previously produced by Preview.
func (e *Engine) IngestReviewed(ctx context.Context, rec model.ReceiptRecord) (model.AppendResult, error) {
	result, err := e.Append(ctx, rec)
	if err != nil {
		e.metrics.IncrementOutcome(StageAppend)
		return result, err
	}
	e.metrics.IncrementOutcome(result.Status)
	return result, nil
}

func (e *Engine) prepare(ctx context.Context, imagePath string) (*IngestResult, error) {
	res := &IngestResult{}

	text, err := e.ExtractText(ctx, imagePath)
	if err != nil {
		return res, err
	}
	res.RawText = text

	structured, err := e.Structure(ctx, text)
	if err != nil {
		return res, err
	}
	res.Structured = structured

	rec, err := e.Parse(structured)
	if err != nil {
		return res, err
	}
	res.Record = rec
	res.Rows = receipt.BuildRows(*rec)

	return res, nil
}

func (e *Engine) recordFailure(imagePath string, err error) {
	stage := "unknown"
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
	}
	e.metrics.IncrementOutcome(stage)
	e.logger.Error("receipt ingestion failed",
		"image", imagePath,
		"stage", stage,
		"error", err)
}

// Categories returns the current category set.
func (e *Engine) Categories(ctx context.Context) (model.CategorySet, error) {
	set, err := e.registry.Load(ctx)
	if err != nil {
		return model.CategorySet{}, &StageError{Stage: StageCategory, Err: err}
	}
	return set, nil
}

// AddCategory adds a category to the registry.
func (e *Engine) AddCategory(ctx context.Context, name string) (service.CategoryResult, error) {
	res, err := e.registry.Add(ctx, name)
	if err != nil {
		e.metrics.IncrementCategoryChange("add", "error")
		return res, &StageError{Stage: StageCategory, Err: err}
	}
	e.metrics.IncrementCategoryChange("add", string(res.Status))
	return res, nil
}

// RemoveCategory removes a category from the registry.
func (e *Engine) RemoveCategory(ctx context.Context, name string) (service.CategoryResult, error) {
	res, err := e.registry.Remove(ctx, name)
	if err != nil {
		e.metrics.IncrementCategoryChange("remove", "error")
		return res, &StageError{Stage: StageCategory, Err: err}
	}
	e.metrics.IncrementCategoryChange("remove", string(res.Status))
	return res, nil
}
