package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/llm"
)

// apiKeyEnv lists the environment variables consulted for each provider's key, in order.
var apiKeyEnv = map[string][]string{
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
}

// LoadLLMConfig loads the OCR/classifier provider configuration.
func LoadLLMConfig() (llm.Config, error) {
	provider := strings.ToLower(viper.GetString("llm.provider"))
	if provider == "" {
		provider = llm.DefaultProvider
	}

	envKeys, ok := apiKeyEnv[provider]
	if !ok {
		return llm.Config{}, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, provider)
	}

	cfg := llm.Config{
		Provider:    provider,
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		BaseURL:     viper.GetString("llm.base_url"),
		Timeout:     viper.GetDuration("llm.timeout"),
		MaxRetries:  viper.GetInt("llm.max_retries"),
		RetryDelay:  viper.GetDuration("llm.retry_delay"),
		CacheTTL:    viper.GetDuration("llm.cache_ttl"),
		RateLimit:   viper.GetInt("llm.rate_limit"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
	}

	for _, key := range envKeys {
		if cfg.APIKey != "" {
			break
		}
		cfg.APIKey = os.Getenv(key)
	}

	if cfg.APIKey == "" {
		return llm.Config{}, fmt.Errorf("%w: %s API key (set llm.api_key or %s)",
			common.ErrMissingConfig, provider, strings.Join(envKeys, " / "))
	}
	if cfg.MaxRetries < 0 {
		return llm.Config{}, fmt.Errorf("%w: llm.max_retries must not be negative", common.ErrInvalidConfig)
	}

	return cfg, nil
}
