package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-receipts-must-flow/internal/categories"
	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/config"
	"github.com/Veraticus/the-receipts-must-flow/internal/engine"
	"github.com/Veraticus/the-receipts-must-flow/internal/llm"
	"github.com/Veraticus/the-receipts-must-flow/internal/metrics"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
	"github.com/Veraticus/the-receipts-must-flow/internal/sheets"
	"github.com/Veraticus/the-receipts-must-flow/internal/storage"
)

// needs selects which collaborators a command talks to.
type needs struct {
	llm    bool
	sheets bool
}

// app holds the wired components for one command invocation.
type app struct {
	workspace config.WorkspaceConfig
	registry  *categories.Registry
	llm       *llm.Service
	ledger    *storage.Ledger
	metrics   *metrics.Metrics
	engine    *engine.Engine
	tools     *engine.Tools
	logger    *slog.Logger
}

func newApp(ctx context.Context, n needs) (*app, error) {
	logger := slog.Default()

	ws, err := config.LoadWorkspaceConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		workspace: ws,
		registry:  categories.New(ws.CategoriesPath, logger),
		metrics:   metrics.New(),
		logger:    logger,
	}

	deps := engine.Deps{
		Registry: a.registry,
		Metrics:  a.metrics,
		Logger:   logger,
	}

	if n.llm {
		llmCfg, err := config.LoadLLMConfig()
		if err != nil {
			return nil, configError("LLM", err)
		}
		a.llm, err = llm.NewService(llmCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", llmCfg.Provider, err)
		}
		deps.OCR = a.llm
		deps.Classifier = a.llm
	}

	if n.sheets {
		sheetsCfg, err := config.LoadSheetsConfig()
		if err != nil {
			a.Close()
			return nil, configError("Google Sheets", err)
		}
		writer, err := sheets.NewAppender(ctx, *sheetsCfg, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}

		var ledger service.BatchLedger
		if ws.Dedupe {
			a.ledger, err = openLedger(ctx, ws.LedgerPath)
			if err != nil {
				a.Close()
				return nil, err
			}
			ledger = a.ledger
		}
		deps.Appender = engine.NewAppender(writer, ledger, logger)
	}

	a.engine = engine.New(deps)
	a.tools = engine.NewTools(a.engine, logger)
	return a, nil
}

func openLedger(ctx context.Context, path string) (*storage.Ledger, error) {
	ledger, err := storage.NewLedger(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := ledger.Migrate(ctx); err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return ledger, nil
}

// Close releases the ledger and the LLM client.
func (a *app) Close() {
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			common.LogError(err, "failed to close ledger", common.Fields{"path": a.ledger.Path()})
		}
	}
	if a.llm != nil {
		if err := a.llm.Close(); err != nil {
			common.LogError(err, "failed to close LLM client", common.Fields{"provider": a.llm.Provider()})
		}
	}
}

func configError(what string, err error) error {
	if errors.Is(err, common.ErrMissingConfig) || errors.Is(err, common.ErrInvalidConfig) {
		return common.NewUserError(fmt.Sprintf("%s is not configured: %v", what, err), err)
	}
	return err
}
