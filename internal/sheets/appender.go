package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// Appender writes rows to the end of a sheet with one API call per batch.
// It does not retry; a failed batch is reported to the caller as is.
type Appender struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewAppender creates an appender authenticated from config.
func NewAppender(ctx context.Context, config Config, logger *slog.Logger) (*Appender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewAppenderWithService(srv, config, logger), nil
}

// NewAppenderWithService creates an appender around an existing API service.
func NewAppenderWithService(srv *sheets.Service, config Config, logger *slog.Logger) *Appender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Appender{
		service: srv,
		config:  config,
		logger:  logger,
	}
}

// Target implements service.RowWriter.
func (a *Appender) Target() string {
	return a.config.Target()
}

// AppendRows appends rows in a single call and returns the number of rows written.
func (a *Appender) AppendRows(ctx context.Context, rows []model.SpreadsheetRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}

	resp, err := a.service.Spreadsheets.Values.
		Append(a.config.SpreadsheetID, a.config.Range(), &sheets.ValueRange{Values: values}).
		ValueInputOption(a.config.ValueInputOption).
		InsertDataOption(a.config.InsertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append to %s: %w", a.config.Target(), err)
	}

	written := len(rows)
	if resp != nil && resp.Updates != nil && resp.Updates.UpdatedRows > 0 {
		written = int(resp.Updates.UpdatedRows)
	}

	a.logger.Info("rows appended",
		"spreadsheet_id", a.config.SpreadsheetID,
		"range", a.config.Range(),
		"rows", written)

	return written, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		if token.RefreshToken == "" {
			saved, err := LoadToken(config.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("unable to load token file (run 'receipts auth sheets'): %w", err)
			}
			token = saved
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource))}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

var _ service.RowWriter = (*Appender)(nil)
