package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/slider/internal/config"
	"github.com/roach88/slider/internal/registry"
)

// withRegistry opens the persisted registry and passes it to fn without
// creating anything on disk. fn is not called for a store that was never
// written.
func withRegistry(cfg *config.Config, fn func(registry.Store) error) error {
	name := registry.FileName
	if cfg.Store.Registry == config.RegistrySQLite {
		name = registry.DatabaseName
	}
	if _, err := os.Stat(filepath.Join(cfg.Store.Dir, name)); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	store, err := registry.Open(cfg.Store.Dir, cfg.Store.Registry)
	if err != nil {
		return withCode(ErrCodeStore, WrapExitError(ExitFailure, "failed to open registry", err))
	}
	defer store.Close()
	return fn(store)
}

// readRegistry loads the persisted registry. A store that was never
// written yields an empty registry.
func readRegistry(ctx context.Context, cfg *config.Config) (registry.Registry, error) {
	reg := registry.Registry{}
	err := withRegistry(cfg, func(store registry.Store) error {
		loaded, err := store.Load(ctx)
		if err != nil {
			return withCode(ErrCodeStore, WrapExitError(ExitFailure, "failed to load registry", err))
		}
		reg = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
