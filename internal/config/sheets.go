package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/sheets"
)

// DefaultTokenFile stores the OAuth2 token saved by "receipts auth sheets".
const DefaultTokenFile = "~/.config/receipts/sheets_token.json"

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or RECEIPTS_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*, GOOGLE_APPLICATION_CREDENTIALS, SHEETS_ID)
// 3. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := SheetsConfigFromSources()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: sheets: %w", common.ErrInvalidConfig, err)
	}

	return &config, nil
}

// SheetsConfigFromSources merges all sources without validating, for
// commands that only need part of the configuration.
func SheetsConfigFromSources() sheets.Config {
	defaults := sheets.DefaultConfig()
	config := sheets.Config{
		ServiceAccountPath: ExpandPath(viper.GetString("sheets.service_account_path")),
		ClientID:           viper.GetString("sheets.client_id"),
		ClientSecret:       viper.GetString("sheets.client_secret"),
		RefreshToken:       viper.GetString("sheets.refresh_token"),
		TokenFile:          ExpandPath(viper.GetString("sheets.token_file")),
		SpreadsheetID:      viper.GetString("sheets.spreadsheet_id"),
		SheetName:          viper.GetString("sheets.sheet_name"),
		Columns:            viper.GetString("sheets.columns"),
		ValueInputOption:   viper.GetString("sheets.value_input_option"),
		InsertDataOption:   viper.GetString("sheets.insert_data_option"),
		Endpoint:           viper.GetString("sheets.endpoint"),
	}

	config.LoadFromEnv()
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)

	if config.SheetName == "" {
		config.SheetName = defaults.SheetName
	}
	if config.Columns == "" {
		config.Columns = defaults.Columns
	}
	if config.ValueInputOption == "" {
		config.ValueInputOption = defaults.ValueInputOption
	}
	if config.InsertDataOption == "" {
		config.InsertDataOption = defaults.InsertDataOption
	}
	if config.TokenFile == "" && config.RefreshToken == "" && config.ClientID != "" {
		config.TokenFile = ExpandPath(DefaultTokenFile)
	}

	return config
}
