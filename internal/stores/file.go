package stores

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/systmms/vaultops/internal/config"
	vaultopserrors "github.com/systmms/vaultops/internal/errors"
	"github.com/systmms/vaultops/internal/logging"
	"github.com/systmms/vaultops/pkg/secrets"
	"github.com/systmms/vaultops/pkg/store"
)

// FileStore reads application buckets from a directory of
// <application>.json documents, the same shape the export command
// writes. It exists for local development and for tests.
type FileStore struct {
	dir    string
	logger *logging.Logger
}

// NewFileStore builds the file backend from the secretStore settings.
func NewFileStore(env *config.Environment, logger *logging.Logger) (*FileStore, error) {
	dir := env.Store.GetString("path")
	if dir == "" {
		return nil, vaultopserrors.ConfigError{
			Field:      "secretStore.path",
			Message:    "directory path is required for the file store",
			Suggestion: "Set secretStore.path to a directory of <application>.json files",
		}
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) Name() string {
	return "file"
}

// ApplicationSecrets reads <dir>/<application>.json.
func (s *FileStore) ApplicationSecrets(ctx context.Context, app string) (map[string]secrets.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, app+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.NotFoundError{Store: s.Name(), Application: app}
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets for %s: %w", app, err)
	}
	return decodeBucket(s.Name(), app, data)
}

// Validate checks that the directory exists.
func (s *FileStore) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		return vaultopserrors.UserError{
			Message:    fmt.Sprintf("secret store directory %s is not readable", s.dir),
			Details:    err.Error(),
			Suggestion: "Check secretStore.path in the environment file",
		}
	}
	if !info.IsDir() {
		return vaultopserrors.UserError{
			Message:    fmt.Sprintf("secret store path %s is not a directory", s.dir),
			Suggestion: "Point secretStore.path at a directory of <application>.json files",
		}
	}
	return nil
}
