package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/slider/internal/deck"
	"github.com/roach88/slider/internal/numbering"
	"github.com/roach88/slider/internal/registry"
	"github.com/roach88/slider/internal/testutil"
)

// numbered loads and numbers a deck built from specs.
func numbered(t *testing.T, specs ...testutil.SlideSpec) *deck.Sequence {
	t.Helper()
	_, seq, err := deck.Load(testutil.Deck(specs...))
	require.NoError(t, err)
	numbering.Assign(seq)
	return seq
}

// seed writes files into dir, creating it first.
func seed(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// contents reads every file in dir into a name -> content map.
func contents(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}

// hashOf returns the fingerprint of the record with the given id.
func hashOf(t *testing.T, seq *deck.Sequence, id string) string {
	t.Helper()
	i, ok := seq.Lookup(id)
	require.True(t, ok, "record %s", id)
	return seq.Records[i].Hash
}

// unchanged builds a registry matching seq except for the given numbers.
func unchanged(seq *deck.Sequence, numbers map[string]int64) registry.Registry {
	reg := registry.Snapshot(seq)
	for id, n := range numbers {
		e := reg[id]
		e.Number = n
		reg[id] = e
	}
	return reg
}

// listNames returns the sorted names of every entry in dir, directories
// included.
func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
