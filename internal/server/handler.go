package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Veraticus/the-receipts-must-flow/internal/categories"
	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/engine"
	"github.com/Veraticus/the-receipts-must-flow/internal/llm"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// Pipeline is the subset of the engine served over HTTP.
type Pipeline interface {
	Ingest(ctx context.Context, imagePath string) (*engine.IngestResult, error)
	Preview(ctx context.Context, imagePath string) (*engine.IngestResult, error)
	Categories(ctx context.Context) (model.CategorySet, error)
	AddCategory(ctx context.Context, name string) (service.CategoryResult, error)
	RemoveCategory(ctx context.Context, name string) (service.CategoryResult, error)
}

// ToolRunner dispatches tool calls by name.
type ToolRunner interface {
	Call(ctx context.Context, name string, args map[string]string) string
	Definitions() []engine.ToolDefinition
}

// Handler wires HTTP endpoints to the pipeline and the tools.
type Handler struct {
	pipeline       Pipeline
	tools          ToolRunner
	logger         *slog.Logger
	uploadDir      string
	maxUploadBytes int64
}

// NewHandler constructs a handler. Uploads larger than maxUploadBytes are rejected.
func NewHandler(pipeline Pipeline, tools ToolRunner, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	return &Handler{
		pipeline:       pipeline,
		tools:          tools,
		logger:         logger,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Register mounts the bridge endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ocr", h.HandleOCR)

	r.Get("/tools", h.HandleListTools)
	r.Post("/tools/{name}", h.HandleCallTool)

	r.Get("/categories", h.HandleListCategories)
	r.Post("/categories", h.HandleAddCategory)
	r.Delete("/categories/*", h.HandleRemoveCategory)
}

// HandleOCR handles POST /ocr: a multipart upload in field "file" runs
// through the whole pipeline, or everything but the append with ?dry_run=true.
func (h *Handler) HandleOCR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	if _, err := llm.ImageMIMEType(header.Filename); err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to store upload", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer func() { _ = os.Remove(path) }()

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))

	var result *engine.IngestResult
	if dryRun {
		result, err = h.pipeline.Preview(ctx, path)
	} else {
		result, err = h.pipeline.Ingest(ctx, path)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "ocr request failed",
			"request_id", requestID,
			"filename", header.Filename,
			"error", err)
		writeJSON(w, statusForError(err), engine.NewErrorPayload(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) saveUpload(src io.Reader, filename string) (string, error) {
	dir := h.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, "receipt-"+uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close upload: %w", err)
	}
	return path, nil
}

// HandleListTools handles GET /tools.
func (h *Handler) HandleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": h.tools.Definitions()})
}

// HandleCallTool handles POST /tools/{name}. The body is a JSON object of
// string arguments. Tool failures are reported in the body with status 200.
func (h *Handler) HandleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args := map[string]string{}
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeError(w, http.StatusBadRequest, "request body must be a JSON object of string arguments")
			return
		}
	}

	out := h.tools.Call(r.Context(), name, args)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, out)
}

type categoriesResponse struct {
	Status     string   `json:"status,omitempty"`
	Category   string   `json:"category,omitempty"`
	Categories []string `json:"categories"`
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

// HandleListCategories handles GET /categories.
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	set, err := h.pipeline.Categories(r.Context())
	if err != nil {
		writeJSON(w, statusForError(err), engine.NewErrorPayload(err))
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: set.Names()})
}

// HandleAddCategory handles POST /categories.
func (h *Handler) HandleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be {\"name\": \"...\"}")
		return
	}

	res, err := h.pipeline.AddCategory(r.Context(), req.Name)
	if err != nil {
		writeJSON(w, statusForError(err), engine.NewErrorPayload(err))
		return
	}

	status := http.StatusOK
	if res.Status == service.CategoryAdded {
		status = http.StatusCreated
	}
	writeJSON(w, status, categoriesResponse{Status: string(res.Status), Category: res.Category, Categories: res.Categories.Names()})
}

// HandleRemoveCategory handles DELETE /categories/{name}. The name may
// contain slashes, either literal or escaped as %2F.
func (h *Handler) HandleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		// chi routes on the escaped path.
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid category name: %v", err))
			return
		}
		name = unescaped
	}

	res, err := h.pipeline.RemoveCategory(r.Context(), name)
	if err != nil {
		writeJSON(w, statusForError(err), engine.NewErrorPayload(err))
		return
	}

	status := http.StatusOK
	if res.Status == service.CategoryNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, categoriesResponse{Status: string(res.Status), Category: res.Category, Categories: res.Categories.Names()})
}

// statusForError maps pipeline errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, categories.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrMalformedJSON),
		errors.Is(err, common.ErrMissingFields),
		errors.Is(err, common.ErrWrongType),
		errors.Is(err, common.ErrMissingLineItemFields):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrCollaborator),
		errors.Is(err, common.ErrPersistence):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, engine.ErrorPayload{Error: msg})
}
