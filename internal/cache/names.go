package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
)

// Tier directory names inside a store directory.
const (
	CurrentDir = "current"
	NewDir     = "new"
)

// artifactPattern matches names eviction is allowed to consider.
var artifactPattern = regexp.MustCompile(`^([0-9]+).*\.png$`)

// Name returns the artifact file name for a slide number and label.
func Name(number int64, label string) string {
	name := fmt.Sprintf("%010d", number)
	if label != "" {
		name += "_" + label
	}
	return name + ".png"
}

// ParseNumber returns the leading number of an artifact name. ok is false
// for names that do not follow the artifact naming scheme.
func ParseNumber(name string) (n int64, ok bool) {
	m := artifactPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Tiers locates the two tier directories of a store directory.
type Tiers struct {
	Root string
}

// Current returns the path of the current tier.
func (t Tiers) Current() string {
	return filepath.Join(t.Root, CurrentDir)
}

// New returns the path of the new tier.
func (t Tiers) New() string {
	return filepath.Join(t.Root, NewDir)
}

// Ensure creates both tier directories if needed.
func (t Tiers) Ensure() error {
	for _, dir := range []string{t.Current(), t.New()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create tier %s: %w", dir, err)
		}
	}
	return nil
}

// List returns the sorted names of the regular files in dir. A missing
// directory lists as empty.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}
