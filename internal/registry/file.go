package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/slider/internal/atomicfile"
)

// FileName is the YAML registry file inside a store directory.
const FileName = "status.yaml"

// FileStore keeps the registry in a YAML file:
//
//	g1a2b3c4:
//	    hash: 9f86d081...
//	    number: 10000
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the YAML file at path.
// The file is created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry. A missing or empty file yields an empty registry.
func (s *FileStore) Load(ctx context.Context) (Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Registry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	reg := Registry{}
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("load registry %s: %w", s.path, err)
	}
	if reg == nil {
		reg = Registry{}
	}
	return reg, nil
}

// Save atomically replaces the file with reg.
func (s *FileStore) Save(ctx context.Context, reg Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if reg == nil {
		reg = Registry{}
	}

	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	if err := atomicfile.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *FileStore) Close() error {
	return nil
}
