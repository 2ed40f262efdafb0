// Package config loads slider's settings from a YAML file and SLIDER_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Registry backends accepted by store.registry.
const (
	RegistryYAML   = "yaml"
	RegistrySQLite = "sqlite"
)

// Config holds the complete slider configuration.
type Config struct {
	Presentation PresentationConfig `koanf:"presentation"`
	Store        StoreConfig        `koanf:"store"`
	Auth         AuthConfig         `koanf:"auth"`
	Fetch        FetchConfig        `koanf:"fetch"`
	Endpoints    EndpointsConfig    `koanf:"endpoints"`
	Metrics      MetricsConfig      `koanf:"metrics"`
}

// PresentationConfig names the document to process.
type PresentationConfig struct {
	ID string `koanf:"id"`
}

// StoreConfig describes the local artifact store.
type StoreConfig struct {
	Dir      string `koanf:"dir"`
	Registry string `koanf:"registry"` // yaml (status.yaml) or sqlite (status.db)

	// Promote moves new/ into current/ after a successful run.
	Promote bool `koanf:"promote"`
}

// AuthConfig selects the bearer credential. The first non-empty source
// wins: access_token, token_file, credentials_file.
type AuthConfig struct {
	CredentialsFile string `koanf:"credentials_file"`
	TokenFile       string `koanf:"token_file"`
	AccessToken     string `koanf:"access_token"`
}

// FetchConfig tunes artifact export.
type FetchConfig struct {
	Concurrency     int           `koanf:"concurrency"`
	RatePerSecond   float64       `koanf:"rate_per_second"`
	Burst           int           `koanf:"burst"`
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`

	// RepairMissing re-fetches unchanged records whose artifact is gone.
	RepairMissing bool `koanf:"repair_missing"`

	// RetainFailed keeps the prior registry entry for records whose fetch
	// failed, so the next run retries them.
	RetainFailed bool `koanf:"retain_failed"`
}

// EndpointsConfig overrides service base URLs. Empty fields use the
// production services.
type EndpointsConfig struct {
	Slides string `koanf:"slides"`
	Drive  string `koanf:"drive"`
	Export string `koanf:"export"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	File string `koanf:"file"`
}

// Validate checks the configuration for invalid values. It does not
// require presentation.id; commands that need it check for themselves.
func (c *Config) Validate() error {
	var errs []error

	if c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir must not be empty"))
	}
	switch c.Store.Registry {
	case RegistryYAML, RegistrySQLite:
	default:
		errs = append(errs, fmt.Errorf("store.registry must be %q or %q, got %q", RegistryYAML, RegistrySQLite, c.Store.Registry))
	}
	if c.Fetch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch.concurrency must be at least 1, got %d", c.Fetch.Concurrency))
	}
	if c.Fetch.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("fetch.rate_per_second must not be negative, got %g", c.Fetch.RatePerSecond))
	}
	if c.Fetch.Burst < 0 {
		errs = append(errs, fmt.Errorf("fetch.burst must not be negative, got %d", c.Fetch.Burst))
	}
	if c.Fetch.Timeout < 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must not be negative, got %s", c.Fetch.Timeout))
	}

	return errors.Join(errs...)
}
