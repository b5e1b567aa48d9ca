package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// ExtractText sends an image with an instruction and returns the model's text.
	ExtractText(ctx context.Context, image Image, prompt string) (string, error)
	// Complete sends a text-only prompt with an optional system instruction.
	Complete(ctx context.Context, system, prompt string) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// Image is an image payload sent to a vision model.
type Image struct {
	MIMEType string
	Data     []byte
}

// Config holds configuration for the LLM collaborators.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

func (cfg Config) withDefaults(defaultModel, defaultBaseURL string) Config {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return cfg
}
