package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// geminiClient implements the Client interface for the Gemini generateContent API.
type geminiClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cfg = cfg.withDefaults("gemini-1.5-flash", "https://generativelanguage.googleapis.com")

	return &geminiClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  newHTTPClient(cfg.Timeout),
	}, nil
}

type geminiPart struct {
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
	Text       string            `json:"text,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiResponse struct {
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Candidates []struct {
		FinishReason string        `json:"finishReason"`
		Content      geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *geminiClient) Name() string { return "gemini" }

// ExtractText sends the image inline with the prompt.
func (c *geminiClient) ExtractText(ctx context.Context, image Image, prompt string) (string, error) {
	parts := []geminiPart{
		{InlineData: &geminiInlineData{MIMEType: image.MIMEType, Data: base64.StdEncoding.EncodeToString(image.Data)}},
		{Text: prompt},
	}
	return c.generate(ctx, "", parts)
}

// Complete sends a text prompt.
func (c *geminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	return c.generate(ctx, system, []geminiPart{{Text: prompt}})
}

func (c *geminiClient) generate(ctx context.Context, system string, parts []geminiPart) (string, error) {
	requestBody := map[string]any{
		"contents": []geminiContent{{Role: "user", Parts: parts}},
		"generationConfig": map[string]any{
			"temperature":     c.temperature,
			"maxOutputTokens": c.maxTokens,
		},
	}
	if system != "" {
		requestBody["systemInstruction"] = geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	var response geminiResponse
	if err := postJSON(ctx, c.httpClient, "Gemini", endpoint, headers, requestBody, &response); err != nil {
		return "", err
	}

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var b strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
