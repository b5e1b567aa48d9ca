package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-123"
	cfg.ServiceAccountPath = "/path/to/key.json"
	return cfg
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "service account",
			mutate: func(_ *Config) {},
		},
		{
			name: "oauth with refresh token",
			mutate: func(c *Config) {
				c.ServiceAccountPath = ""
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "refresh"
			},
		},
		{
			name: "oauth with token file",
			mutate: func(c *Config) {
				c.ServiceAccountPath = ""
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.TokenFile = "/tmp/token.json"
			},
		},
		{
			name:    "missing spreadsheet id",
			mutate:  func(c *Config) { c.SpreadsheetID = "" },
			wantErr: true,
			errMsg:  "spreadsheet id is required",
		},
		{
			name: "partial oauth credentials",
			mutate: func(c *Config) {
				c.ServiceAccountPath = ""
				c.ClientID = "id"
				c.RefreshToken = "refresh"
			},
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name: "both auth methods",
			mutate: func(c *Config) {
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "refresh"
			},
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name:    "missing sheet name",
			mutate:  func(c *Config) { c.SheetName = "" },
			wantErr: true,
			errMsg:  "sheet name is required",
		},
		{
			name:    "bad value input option",
			mutate:  func(c *Config) { c.ValueInputOption = "FORMULA" },
			wantErr: true,
			errMsg:  "invalid value input option",
		},
		{
			name:    "bad insert data option",
			mutate:  func(c *Config) { c.InsertDataOption = "APPEND" },
			wantErr: true,
			errMsg:  "invalid insert data option",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigRange(t *testing.T) {
	tests := []struct {
		sheet string
		want  string
	}{
		{sheet: "Sheet1", want: "Sheet1!A:E"},
		{sheet: "Receipts 2024", want: "'Receipts 2024'!A:E"},
		{sheet: "Bob's", want: "'Bob''s'!A:E"},
	}

	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SheetName = tt.sheet
			assert.Equal(t, tt.want, cfg.Range())
		})
	}
}

func TestConfigTarget(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "sheet-123/Sheet1", cfg.Target())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	t.Setenv("SHEETS_ID", "legacy-id")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	cfg := DefaultConfig()
	cfg.ClientID = "configured-client"
	cfg.LoadFromEnv()

	assert.Equal(t, "legacy-id", cfg.SpreadsheetID)
	assert.Equal(t, "configured-client", cfg.ClientID, "explicit values win over env")
	assert.Equal(t, "Sheet1", cfg.SheetName)
}
