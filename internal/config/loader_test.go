package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slider.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStoreDir, cfg.Store.Dir)
	assert.Equal(t, RegistryYAML, cfg.Store.Registry)
	assert.Equal(t, DefaultConcurrency, cfg.Fetch.Concurrency)
	assert.Equal(t, DefaultTimeout, cfg.Fetch.Timeout)
	assert.False(t, cfg.Store.Promote)
	assert.False(t, cfg.Fetch.RetainFailed)
	assert.Empty(t, cfg.Presentation.ID)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
presentation:
  id: deck-123
store:
  dir: /var/lib/slider
  registry: sqlite
  promote: true
auth:
  credentials_file: /etc/slider/credentials.json
  token_file: /etc/slider/token.json
fetch:
  concurrency: 8
  rate_per_second: 2.5
  burst: 3
  timeout: 30s
  breaker_failures: 7
  repair_missing: true
  retain_failed: true
endpoints:
  slides: http://localhost:9000
metrics:
  file: /var/lib/node_exporter/slider.prom
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "deck-123", cfg.Presentation.ID)
	assert.Equal(t, "/var/lib/slider", cfg.Store.Dir)
	assert.Equal(t, RegistrySQLite, cfg.Store.Registry)
	assert.True(t, cfg.Store.Promote)
	assert.Equal(t, "/etc/slider/credentials.json", cfg.Auth.CredentialsFile)
	assert.Equal(t, "/etc/slider/token.json", cfg.Auth.TokenFile)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
	assert.InDelta(t, 2.5, cfg.Fetch.RatePerSecond, 1e-9)
	assert.Equal(t, 3, cfg.Fetch.Burst)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, uint32(7), cfg.Fetch.BreakerFailures)
	assert.True(t, cfg.Fetch.RepairMissing)
	assert.True(t, cfg.Fetch.RetainFailed)
	assert.Equal(t, "http://localhost:9000", cfg.Endpoints.Slides)
	assert.Empty(t, cfg.Endpoints.Drive)
	assert.Equal(t, "/var/lib/node_exporter/slider.prom", cfg.Metrics.File)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
store:
  dir: from-file
fetch:
  concurrency: 2
`)
	t.Setenv("SLIDER_STORE_DIR", "from-env")
	t.Setenv("SLIDER_FETCH_RATE_PER_SECOND", "7")
	t.Setenv("SLIDER_FETCH_RETAIN_FAILED", "true")
	t.Setenv("SLIDER_PRESENTATION_ID", "env-deck")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Store.Dir)
	assert.Equal(t, 2, cfg.Fetch.Concurrency, "file value survives when env is unset")
	assert.InDelta(t, 7.0, cfg.Fetch.RatePerSecond, 1e-9)
	assert.True(t, cfg.Fetch.RetainFailed)
	assert.Equal(t, "env-deck", cfg.Presentation.ID)
}

func TestLoadOverridesWin(t *testing.T) {
	t.Setenv("SLIDER_STORE_DIR", "from-env")

	cfg, err := Load("", map[string]any{
		"store.dir":       "from-flag",
		"presentation.id": "flag-deck",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Store.Dir)
	assert.Equal(t, "flag-deck", cfg.Presentation.ID)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown registry", "store:\n  registry: postgres\n", "store.registry"},
		{"negative concurrency", "fetch:\n  concurrency: -1\n", "fetch.concurrency"},
		{"negative rate", "fetch:\n  rate_per_second: -2\n", "fetch.rate_per_second"},
		{"negative burst", "fetch:\n  burst: -1\n", "fetch.burst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsDirectory(t *testing.T) {
	_, err := Load(t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [unclosed\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SLIDER_STORE_DIR":             "store.dir",
		"SLIDER_FETCH_RATE_PER_SECOND": "fetch.rate_per_second",
		"SLIDER_AUTH_ACCESS_TOKEN":     "auth.access_token",
		"SLIDER_METRICS_FILE":          "metrics.file",
		"SLIDER_VERBOSE":               "verbose",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{Registry: "bogus"},
		Fetch: FetchConfig{Concurrency: 0},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.dir")
	assert.Contains(t, err.Error(), "store.registry")
	assert.Contains(t, err.Error(), "fetch.concurrency")
}
