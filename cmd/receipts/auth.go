package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-receipts-must-flow/internal/config"
	"github.com/Veraticus/the-receipts-must-flow/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with external services like Google Sheets.`,
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize access to Google Sheets",
		Long: `Run the OAuth2 flow for Google Sheets and store the token.

This command will:
1. Start a local callback server
2. Print a Google consent URL to open in your browser
3. Save the resulting token for future appends

Service-account users do not need this; set sheets.service_account_path instead.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret")
	cmd.Flags().String("token-file", "", "where to store the token (default "+config.DefaultTokenFile+")")
	cmd.Flags().String("callback-addr", sheets.DefaultCallbackAddr, "address of the local OAuth2 callback server")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.SheetsConfigFromSources()

	// Override with flags if provided
	if v, _ := cmd.Flags().GetString("client-id"); v != "" {
		cfg.ClientID = v
	}
	if v, _ := cmd.Flags().GetString("client-secret"); v != "" {
		cfg.ClientSecret = v
	}
	tokenFile, _ := cmd.Flags().GetString("token-file")
	if tokenFile == "" {
		tokenFile = cfg.TokenFile
	}
	if tokenFile == "" {
		tokenFile = config.DefaultTokenFile
	}
	tokenFile = config.ExpandPath(tokenFile)
	callbackAddr, _ := cmd.Flags().GetString("callback-addr")

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

	token, err := sheets.AuthenticateOAuth2Interactive(ctx, sheets.OAuth2Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenFile:    tokenFile,
		CallbackAddr: callbackAddr,
	})
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	// The interactive flow only warns when the token cannot be written.
	if _, err := sheets.LoadToken(tokenFile); err != nil {
		if saveErr := sheets.SaveToken(tokenFile, token); saveErr != nil {
			slog.Warn("Could not save the token; add the refresh token to your config manually",
				"error", saveErr,
				"key", "sheets.refresh_token")
			return printLine(cmd, token.RefreshToken)
		}
	}

	slog.Info("✅ Authentication successful!")
	slog.Info("📊 Google Sheets is now configured and ready to use.")
	if cfg.SpreadsheetID == "" {
		slog.Info("Set sheets.spreadsheet_id (or SHEETS_ID) to the sheet receipts should go to.")
	}
	return nil
}
