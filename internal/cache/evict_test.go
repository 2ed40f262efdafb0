package cache

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvict(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, map[string]string{
		"0000000100.png":       "",
		"0000000200_intro.png": "",
		"0000000300.png":       "",
		"300-copy.png":         "",
		"x0000000400.png":      "",
		".move-1.tmp":          "",
	})

	removed, err := Evict(dir, map[int64]bool{100: true, 300: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"0000000200_intro.png"}, removed)
	assert.Equal(t, []string{".move-1.tmp", "0000000100.png", "0000000300.png", "300-copy.png", "x0000000400.png"},
		keys(contents(t, dir)))
}

func TestEvictEmptyLiveSet(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, map[string]string{"1.png": "", "2.png": "", "keep.me": ""})

	removed, err := Evict(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.png", "2.png"}, removed)
}

func TestEvictMissingDir(t *testing.T) {
	removed, err := Evict(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestPromote(t *testing.T) {
	tiers := Tiers{Root: t.TempDir()}
	seed(t, tiers.Current(), map[string]string{"0000000100.png": "old", "0000000200.png": "untouched"})
	seed(t, tiers.New(), map[string]string{
		"0000000100.png":   "new",
		"0000000300_x.png": "fresh",
		"0000000400.png":   "orphan",
		"scratch.txt":      "",
	})

	moved, dropped, err := Promote(tiers, map[int64]bool{100: true, 200: true, 300: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"0000000100.png", "0000000300_x.png"}, moved)
	assert.Equal(t, []string{"0000000400.png"}, dropped)
	assert.Equal(t, map[string]string{
		"0000000100.png":   "new",
		"0000000200.png":   "untouched",
		"0000000300_x.png": "fresh",
	}, contents(t, tiers.Current()))
	assert.Equal(t, map[string]string{"scratch.txt": ""}, contents(t, tiers.New()))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func TestPromoteEmptyNewTier(t *testing.T) {
	tiers := Tiers{Root: t.TempDir()}

	moved, dropped, err := Promote(tiers, map[int64]bool{100: true})
	require.NoError(t, err)
	assert.Empty(t, moved)
	assert.Empty(t, dropped)
	assert.DirExists(t, tiers.Current())
}
