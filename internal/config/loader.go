package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "SLIDER_"

const maxConfigFileSize = 1024 * 1024

// Defaults.
const (
	DefaultStoreDir    = "slides"
	DefaultConcurrency = 4
	DefaultTimeout     = 60 * time.Second
)

// Load reads configuration in increasing order of precedence:
//
//  1. defaults
//  2. the YAML file at path, when path is non-empty
//  3. SLIDER_SECTION_FIELD environment variables
//  4. overrides, keyed by dotted path (e.g. "store.dir")
//
// Environment variables split on the first underscore after the prefix:
//
//	SLIDER_STORE_DIR             -> store.dir
//	SLIDER_FETCH_RATE_PER_SECOND -> fetch.rate_per_second
//	SLIDER_PRESENTATION_ID       -> presentation.id
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps SLIDER_FETCH_REPAIR_MISSING to fetch.repair_missing.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config file %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s too large: %d bytes (max %d)", path, info.Size(), maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = DefaultStoreDir
	}
	if cfg.Store.Registry == "" {
		cfg.Store.Registry = RegistryYAML
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = DefaultConcurrency
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = DefaultTimeout
	}
}
