package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/receipt"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// MaxImageSize is the largest receipt image accepted for OCR.
const MaxImageSize = 20 << 20

// ErrUnsupportedImage is returned for files outside the image allow-list.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".heic": "image/heic",
}

// ImageMIMEType returns the MIME type for an allowed image path.
func ImageMIMEType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := imageTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	return mime, nil
}

// Service performs OCR and receipt structuring through an LLM client.
// Calls are rate limited and transient failures are retried; structuring
// results are cached per input.
type Service struct {
	client      Client
	cache       *responseCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   service.RetryOptions
}

// NewService builds the provider client from cfg.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewServiceWithClient(client, cfg, logger), nil
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Service{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
	}
}

// Provider returns the underlying client's name.
func (s *Service) Provider() string {
	return s.client.Name()
}

// ExtractText reads the image at imagePath and returns the OCR text.
func (s *Service) ExtractText(ctx context.Context, imagePath string) (string, error) {
	mime, err := ImageMIMEType(imagePath)
	if err != nil {
		return "", common.NewCollaboratorError("ocr", err)
	}

	info, err := os.Stat(imagePath)
	if err != nil {
		return "", common.NewCollaboratorError("ocr", fmt.Errorf("failed to read image: %w", err))
	}
	if info.Size() > MaxImageSize {
		return "", common.NewCollaboratorError("ocr", fmt.Errorf("image too large: %d bytes", info.Size()))
	}

	data, err := os.ReadFile(imagePath) // #nosec G304
	if err != nil {
		return "", common.NewCollaboratorError("ocr", fmt.Errorf("failed to read image: %w", err))
	}

	start := time.Now()
	var text string
	err = s.call(ctx, "ocr", func() error {
		var callErr error
		text, callErr = s.client.ExtractText(ctx, Image{MIMEType: mime, Data: data}, OCRPrompt)
		return callErr
	})
	if err != nil {
		return "", common.NewCollaboratorError("ocr", err)
	}

	s.logger.Info("receipt text extracted",
		"provider", s.client.Name(),
		"image", filepath.Base(imagePath),
		"chars", len(text),
		"duration", time.Since(start))

	return text, nil
}

// Structure asks the model for a receipt record. The output has code
// fences stripped but is otherwise returned as the model wrote it. Output
// that fails validation is never cached.
func (s *Service) Structure(ctx context.Context, rawText string, categories []string) (string, error) {
	key := cacheKey(append([]string{s.client.Name(), rawText}, categories...)...)
	if cached, ok := s.cache.get(key); ok {
		s.logger.Debug("cache hit for receipt text", "chars", len(rawText))
		return cached, nil
	}

	prompt := BuildStructurePrompt(rawText, categories)

	start := time.Now()
	var out string
	err := s.call(ctx, "classifier", func() error {
		var callErr error
		out, callErr = s.client.Complete(ctx, structureSystemPrompt, prompt)
		return callErr
	})
	if err != nil {
		return "", common.NewCollaboratorError("classifier", err)
	}

	out = receipt.StripCodeFence(out)
	// Only valid records are reused; a caller retrying bad output must reach the model again.
	if _, err := receipt.Validate([]byte(out)); err == nil {
		s.cache.set(key, out)
	}

	s.logger.Info("receipt text structured",
		"provider", s.client.Name(),
		"categories", len(categories),
		"duration", time.Since(start))

	return out, nil
}

func (s *Service) call(ctx context.Context, name string, op func() error) error {
	opts := s.retryOpts
	opts.Name = s.client.Name() + " " + name

	return common.WithRetry(ctx, func() error {
		if err := s.rateLimiter.wait(ctx); err != nil {
			return common.Permanent(err)
		}
		return op()
	}, opts)
}

// Close releases background resources.
func (s *Service) Close() error {
	s.rateLimiter.Close()
	s.cache.Close()
	return nil
}

var (
	_ service.TextExtractor     = (*Service)(nil)
	_ service.ReceiptStructurer = (*Service)(nil)
)
