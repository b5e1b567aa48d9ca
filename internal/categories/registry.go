// Package categories persists the set of valid spending categories in a
// human-editable JSON document.
//
// The registry keeps no state between calls: every operation reads the file,
// and every mutation is a full read-modify-write. Two processes mutating the
// same file concurrently can still lose an update.
package categories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/the-receipts-must-flow/internal/common"
	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"
)

// DefaultFileName is the registry file inside the workspace directory.
const DefaultFileName = "categories.json"

// ErrEmptyName is returned when a category name is blank after normalization.
var ErrEmptyName = errors.New("category name cannot be empty")

// StorageError reports that the registry file could not be read, parsed or written.
type StorageError struct {
	Err  error
	Path string
	Op   string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("category store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{common.ErrStorage, e.Err}
}

// document is the on-disk shape.
type document struct {
	Categories []string `json:"categories"`
}

// Registry is a handle on the category file at a fixed path.
type Registry struct {
	logger *slog.Logger
	path   string
}

// New creates a registry for the file at path.
func New(path string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{path: path, logger: logger}
}

// Path returns the registry file location.
func (r *Registry) Path() string {
	return r.path
}

// Load reads the category set. A missing file is initialized with the
// default categories, which are persisted before returning.
func (r *Registry) Load(ctx context.Context) (model.CategorySet, error) {
	if err := ctx.Err(); err != nil {
		return model.CategorySet{}, err
	}

	data, err := os.ReadFile(r.path) // #nosec G304
	if errors.Is(err, fs.ErrNotExist) {
		set := model.DefaultCategorySet()
		if saveErr := r.Save(ctx, set); saveErr != nil {
			return model.CategorySet{}, saveErr
		}
		r.logger.Info("initialized category registry", "path", r.path, "categories", set.Len())
		return set, nil
	}
	if err != nil {
		return model.CategorySet{}, &StorageError{Op: "read", Path: r.path, Err: err}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.CategorySet{}, &StorageError{Op: "parse", Path: r.path, Err: err}
	}

	return model.NewCategorySet(doc.Categories...), nil
}

// List is an alias for Load.
func (r *Registry) List(ctx context.Context) (model.CategorySet, error) {
	return r.Load(ctx)
}

// Save replaces the registry file with set. Readers never see a partial file.
func (r *Registry) Save(ctx context.Context, set model.CategorySet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(document{Categories: set.Names()}, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: r.path, Err: err}
	}
	data = append(data, '\n')

	if err := writeFileAtomic(r.path, data); err != nil {
		return &StorageError{Op: "write", Path: r.path, Err: err}
	}
	return nil
}

// Add appends name if it is not already present.
func (r *Registry) Add(ctx context.Context, name string) (service.CategoryResult, error) {
	key := model.NormalizeCategoryName(name)
	if key == "" {
		return service.CategoryResult{}, ErrEmptyName
	}

	set, err := r.Load(ctx)
	if err != nil {
		return service.CategoryResult{}, err
	}

	if set.Contains(key) {
		return service.CategoryResult{Status: service.CategoryExists, Category: key, Categories: set}, nil
	}

	updated := set.With(key)
	if err := r.Save(ctx, updated); err != nil {
		return service.CategoryResult{}, err
	}

	r.logger.Info("category added", "category", key, "categories", updated.Len())
	return service.CategoryResult{Status: service.CategoryAdded, Category: key, Categories: updated}, nil
}

// Remove deletes name if present.
func (r *Registry) Remove(ctx context.Context, name string) (service.CategoryResult, error) {
	key := model.NormalizeCategoryName(name)
	if key == "" {
		return service.CategoryResult{}, ErrEmptyName
	}

	set, err := r.Load(ctx)
	if err != nil {
		return service.CategoryResult{}, err
	}

	if !set.Contains(key) {
		return service.CategoryResult{Status: service.CategoryNotFound, Category: key, Categories: set}, nil
	}

	updated := set.Without(key)
	if err := r.Save(ctx, updated); err != nil {
		return service.CategoryResult{}, err
	}

	r.logger.Info("category removed", "category", key, "categories", updated.Len())
	return service.CategoryResult{Status: service.CategoryRemoved, Category: key, Categories: updated}, nil
}

// writeFileAtomic writes data to a temp file beside path, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Chmod(0600); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

var _ service.CategoryRegistry = (*Registry)(nil)
