package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-receipts-must-flow/internal/categories"
	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/storage"
)

// DefaultWorkspaceDir holds the category file and the batch ledger.
const DefaultWorkspaceDir = "~/receipt-ocr/workspace"

// WorkspaceConfig locates local state.
type WorkspaceConfig struct {
	Dir            string
	CategoriesPath string
	LedgerPath     string
	Dedupe         bool
}

// LoadWorkspaceConfig resolves workspace paths. Individual files default to
// well-known names inside the workspace directory; relative file paths are
// taken relative to it.
func LoadWorkspaceConfig() (WorkspaceConfig, error) {
	dir := viper.GetString("workspace.dir")
	if dir == "" {
		dir = DefaultWorkspaceDir
	}

	cfg := WorkspaceConfig{
		Dir:    ExpandPath(dir),
		Dedupe: viper.GetBool("append.dedupe"),
	}
	cfg.CategoriesPath = ResolvePath(cfg.Dir, viper.GetString("workspace.categories_file"))
	cfg.LedgerPath = ResolvePath(cfg.Dir, viper.GetString("workspace.ledger_file"))

	if cfg.CategoriesPath == "" {
		cfg.CategoriesPath = filepath.Join(cfg.Dir, categories.DefaultFileName)
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = filepath.Join(cfg.Dir, storage.DefaultFileName)
	}

	if err := cfg.Validate(); err != nil {
		return WorkspaceConfig{}, err
	}
	return cfg, nil
}

// Validate checks that all paths are set.
func (c WorkspaceConfig) Validate() error {
	if c.Dir == "" || c.CategoriesPath == "" || c.LedgerPath == "" {
		return fmt.Errorf("%w: workspace paths must not be empty", common.ErrInvalidConfig)
	}
	if c.CategoriesPath == c.LedgerPath {
		return fmt.Errorf("%w: categories file and ledger must differ", common.ErrInvalidConfig)
	}
	return nil
}
