package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
)

// clearEnv unsets variables the loaders read so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_SHEETS_SPREADSHEET_ID", "SHEETS_ID", "GOOGLE_SHEETS_SHEET_NAME",
	} {
		t.Setenv(key, "")
	}
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RECEIPTS_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/receipts", want: filepath.Join(home, "receipts")},
		{in: "$RECEIPTS_TEST_DIR/ledger.db", want: "/data/ledger.db"},
		{in: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		base string
		in   string
		want string
	}{
		{name: "empty", base: "/ws", in: "", want: ""},
		{name: "relative", base: "/ws", in: "cats.json", want: "/ws/cats.json"},
		{name: "nested relative", base: "/ws", in: "state/ledger.db", want: "/ws/state/ledger.db"},
		{name: "absolute", base: "/ws", in: "/etc/cats.json", want: "/etc/cats.json"},
		{name: "home", base: "/ws", in: "~/cats.json", want: filepath.Join(home, "cats.json")},
		{name: "no base", base: "", in: "cats.json", want: "cats.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.base, tt.in))
		})
	}
}

func TestLoadLLMConfig(t *testing.T) {
	t.Run("gemini default with legacy key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_API_KEY", "legacy")

		cfg, err := LoadLLMConfig()
		require.NoError(t, err)
		assert.Equal(t, "gemini", cfg.Provider)
		assert.Equal(t, "legacy", cfg.APIKey)
	})

	t.Run("viper values win over env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "from-env")
		viper.Set("llm.provider", "OpenAI")
		viper.Set("llm.api_key", "from-config")
		viper.Set("llm.model", "gpt-4o")
		viper.Set("llm.timeout", "30s")

		cfg, err := LoadLLMConfig()
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, "from-config", cfg.APIKey)
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("missing key", func(t *testing.T) {
		clearEnv(t)
		viper.Set("llm.provider", "anthropic")

		_, err := LoadLLMConfig()
		require.ErrorIs(t, err, common.ErrMissingConfig)
		assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearEnv(t)
		viper.Set("llm.provider", "mystery")

		_, err := LoadLLMConfig()
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("service account from env with legacy id", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/keys/sa.json")
		t.Setenv("SHEETS_ID", "sheet-123")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
		assert.Equal(t, "Sheet1", cfg.SheetName)
		assert.Equal(t, "Sheet1!A:E", cfg.Range())
		assert.Equal(t, "USER_ENTERED", cfg.ValueInputOption)
		assert.Equal(t, "INSERT_ROWS", cfg.InsertDataOption)
	})

	t.Run("oauth with default token file", func(t *testing.T) {
		clearEnv(t)
		viper.Set("sheets.client_id", "id")
		viper.Set("sheets.client_secret", "secret")
		viper.Set("sheets.spreadsheet_id", "abc")
		t.Setenv("GOOGLE_SHEETS_SHEET_NAME", "Receipts 2024")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, ExpandPath(DefaultTokenFile), cfg.TokenFile)
		assert.Equal(t, "'Receipts 2024'!A:E", cfg.Range())
	})

	t.Run("missing spreadsheet", func(t *testing.T) {
		clearEnv(t)
		viper.Set("sheets.service_account_path", "/keys/sa.json")

		_, err := LoadSheetsConfig()
		require.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestLoadWorkspaceConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	viper.Set("workspace.dir", dir)
	viper.Set("append.dedupe", true)

	cfg, err := LoadWorkspaceConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "categories.json"), cfg.CategoriesPath)
	assert.Equal(t, filepath.Join(dir, "ledger.db"), cfg.LedgerPath)
	assert.True(t, cfg.Dedupe)

	viper.Set("workspace.categories_file", "shop-categories.json")
	cfg, err = LoadWorkspaceConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shop-categories.json"), cfg.CategoriesPath)

	viper.Set("workspace.ledger_file", filepath.Join(dir, "shop-categories.json"))
	_, err = LoadWorkspaceConfig()
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadServerConfig(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)

	viper.Set("server.addr", ":9000")
	viper.Set("server.max_upload_bytes", 2048)
	cfg, err = LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
}
