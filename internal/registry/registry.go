package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/roach88/slider/internal/deck"
)

// Backend names accepted by Open.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Entry is the persisted state of one slide.
type Entry struct {
	Hash   string `yaml:"hash" json:"hash"`
	Number int64  `yaml:"number" json:"number"`
}

// Registry maps slide ids to their last persisted entry.
type Registry map[string]Entry

// Store loads and saves a Registry.
type Store interface {
	// Load returns the persisted registry, or an empty one if nothing was
	// ever saved.
	Load(ctx context.Context) (Registry, error)

	// Save replaces the persisted registry with reg.
	Save(ctx context.Context, reg Registry) error

	Close() error
}

// History is implemented by stores that keep a record of every save.
type History interface {
	Runs(ctx context.Context) (int, error)
}

// Open returns the store for backend inside dir.
func Open(dir, backend string) (Store, error) {
	switch backend {
	case BackendYAML, "":
		return NewFileStore(filepath.Join(dir, FileName)), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, DatabaseName))
	default:
		return nil, fmt.Errorf("unknown registry backend %q", backend)
	}
}

// Snapshot builds the registry describing seq as it stands now.
func Snapshot(seq *deck.Sequence) Registry {
	reg := make(Registry, seq.Len())
	for _, i := range seq.Order() {
		r := &seq.Records[i]
		reg[r.ID] = Entry{Hash: r.Hash, Number: r.Number}
	}
	return reg
}

// Retain rewinds the entries of failed ids in next to what prior recorded,
// or removes them when prior has none, so that the next run fetches them
// again.
func Retain(next, prior Registry, failed []string) {
	for _, id := range failed {
		if e, ok := prior[id]; ok {
			next[id] = e
			continue
		}
		delete(next, id)
	}
}

// IDs returns the registry's ids in sorted order.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Numbers returns the set of numbers recorded in the registry.
func (r Registry) Numbers() map[int64]bool {
	out := make(map[int64]bool, len(r))
	for _, e := range r {
		out[e.Number] = true
	}
	return out
}
