// Package sheets appends receipt rows to a Google Sheets spreadsheet.
package sheets

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the configuration for the Google Sheets appender.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	TokenFile          string
	ServiceAccountPath string
	SpreadsheetID      string
	SheetName          string
	Columns            string
	ValueInputOption   string
	InsertDataOption   string
	// Endpoint overrides the API base URL; empty means the public API.
	Endpoint string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SheetName:        "Sheet1",
		Columns:          "A:E",
		ValueInputOption: "USER_ENTERED",
		InsertDataOption: "INSERT_ROWS",
	}
}

// LoadFromEnv fills unset fields from environment variables.
// SHEETS_ID is accepted as a fallback for the spreadsheet id.
func (c *Config) LoadFromEnv() {
	setIfEmpty(&c.ClientID, os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	setIfEmpty(&c.ClientSecret, os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	setIfEmpty(&c.RefreshToken, os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	setIfEmpty(&c.ServiceAccountPath, os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	setIfEmpty(&c.ServiceAccountPath, os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	setIfEmpty(&c.SpreadsheetID, os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	setIfEmpty(&c.SpreadsheetID, os.Getenv("SHEETS_ID"))
	setIfEmpty(&c.SheetName, os.Getenv("GOOGLE_SHEETS_SHEET_NAME"))
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// HasOAuth reports whether OAuth2 user credentials are configured.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && (c.RefreshToken != "" || c.TokenFile != "")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id is required")
	}

	hasOAuth := c.HasOAuth()
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.SheetName == "" {
		return fmt.Errorf("sheet name is required")
	}

	switch c.ValueInputOption {
	case "RAW", "USER_ENTERED":
	default:
		return fmt.Errorf("invalid value input option: %q", c.ValueInputOption)
	}

	switch c.InsertDataOption {
	case "INSERT_ROWS", "OVERWRITE":
	default:
		return fmt.Errorf("invalid insert data option: %q", c.InsertDataOption)
	}

	return nil
}

// Range returns the A1 range rows are appended to, e.g. Sheet1!A:E.
func (c *Config) Range() string {
	return quoteSheetName(c.SheetName) + "!" + c.Columns
}

// Target identifies the append destination as "<spreadsheet id>/<sheet name>".
func (c *Config) Target() string {
	return c.SpreadsheetID + "/" + c.SheetName
}

func quoteSheetName(name string) string {
	simple := true
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			simple = false
			break
		}
	}
	if simple {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
