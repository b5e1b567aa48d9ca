package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// anthropicClient implements the Client interface for Anthropic API.
type anthropicClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newAnthropicClient creates a new Anthropic API client.
func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	cfg = cfg.withDefaults("claude-3-5-sonnet-20241022", "https://api.anthropic.com")

	return &anthropicClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newHTTPClient(cfg.Timeout),
	}, nil
}

type anthropicResponse struct {
	ID         string `json:"id"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) Name() string { return "anthropic" }

// ExtractText sends the image as a base64 source block.
func (c *anthropicClient) ExtractText(ctx context.Context, image Image, prompt string) (string, error) {
	content := []map[string]any{
		{
			"type": "image",
			"source": map[string]string{
				"type":       "base64",
				"media_type": image.MIMEType,
				"data":       base64.StdEncoding.EncodeToString(image.Data),
			},
		},
		{"type": "text", "text": prompt},
	}
	return c.messages(ctx, "", content)
}

// Complete sends a text prompt.
func (c *anthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	return c.messages(ctx, system, prompt)
}

func (c *anthropicClient) messages(ctx context.Context, system string, content any) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}
	if system != "" {
		requestBody["system"] = system
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var response anthropicResponse
	if err := postJSON(ctx, c.httpClient, "Anthropic", c.baseURL+"/v1/messages", headers, requestBody, &response); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text content returned")
	}

	return strings.TrimSpace(b.String()), nil
}
