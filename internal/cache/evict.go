package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// Evict removes every artifact in dir whose leading number is not in live
// and returns the removed names. Names that do not follow the artifact
// naming scheme are left alone.
func Evict(dir string, live map[int64]bool) ([]string, error) {
	names, err := List(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, name := range names {
		n, ok := ParseNumber(name)
		if !ok || live[n] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("evict %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Promote moves the artifacts of the new tier whose number is in live
// into the current tier, replacing artifacts of the same name. Artifacts
// in the new tier whose number is not live are removed instead, so
// promotion never brings an orphan into the current tier.
func Promote(t Tiers, live map[int64]bool) (moved, dropped []string, err error) {
	if err := t.Ensure(); err != nil {
		return nil, nil, err
	}
	dropped, err = Evict(t.New(), live)
	if err != nil {
		return nil, dropped, err
	}
	names, err := List(t.New())
	if err != nil {
		return nil, dropped, err
	}

	for _, name := range names {
		if _, ok := ParseNumber(name); !ok {
			continue
		}
		if err := os.Rename(filepath.Join(t.New(), name), filepath.Join(t.Current(), name)); err != nil {
			return moved, dropped, fmt.Errorf("promote %s: %w", name, err)
		}
		moved = append(moved, name)
	}
	return moved, dropped, nil
}
