package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slider/internal/cache"
	"github.com/roach88/slider/internal/testutil"
)

// runFixture runs the run command against fakes.
type runFixture struct {
	svc     *testutil.FakeService
	fetcher *testutil.FakeFetcher
	dir     string
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()
	f := &runFixture{
		svc:     testutil.NewFakeService(),
		fetcher: testutil.NewFakeFetcher(),
		dir:     t.TempDir(),
	}
	t.Setenv("SLIDER_STORE_DIR", f.dir)
	f.svc.Put("deck-1", testutil.Deck(
		testutil.SlideSpec{ID: "a", Body: "first"},
		testutil.SlideSpec{ID: "b", Body: "second", Note: testutil.Note("5000")},
	))
	return f
}

func (f *runFixture) execute(format string, args ...string) (captured, error) {
	c := newCaptured()
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: format},
		Service:     f.svc,
		Exporter:    func(string) cache.Fetcher { return f.fetcher },
		IDs:         testutil.NewSequentialIDGenerator("run"),
	}
	cmd := newRunCommand(opts)
	cmd.SetOut(c.out)
	cmd.SetErr(c.err)
	cmd.SetArgs(args)
	return c, cmd.ExecuteContext(context.Background())
}

func TestRunText(t *testing.T) {
	f := newRunFixture(t)

	c, err := f.execute("text", "-p", "deck-1", "--promote")
	require.NoError(t, err)

	assert.Contains(t, c.out.String(), `deck-1 ("Deck"): 2 slide(s)`)
	assert.Contains(t, c.out.String(), "fetched 2, moved 0, kept 0, missing 0, failed 0, evicted 0")
	assert.Contains(t, c.out.String(), "promoted 2 artifact(s)")
	assert.Equal(t, []string{"0000002500.png", "0000005000.png"}, listDir(t, filepath.Join(f.dir, cache.CurrentDir)))
	assert.Equal(t, "Slider::run-1 Deck", f.svc.Copies()[0].Name)
}

func TestRunJSON(t *testing.T) {
	f := newRunFixture(t)
	f.fetcher.FailOn("b", errors.New("HTTP 503"))

	c, err := f.execute("json", "-p", "deck-1")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Presentation string         `json:"presentation"`
			CopyID       string         `json:"copy_id"`
			Fetched      []string       `json:"fetched"`
			Counts       map[string]int `json:"counts"`
			Failures     []struct {
				ID    string `json:"id"`
				Op    string `json:"op"`
				Error string `json:"error"`
			} `json:"failures"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(c.out.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "deck-1", resp.Data.Presentation)
	assert.Equal(t, "copy-1", resp.Data.CopyID)
	assert.Equal(t, []string{"a"}, resp.Data.Fetched)
	assert.Equal(t, 2, resp.Data.Counts["fetch"])
	require.Len(t, resp.Data.Failures, 1)
	assert.Equal(t, "b", resp.Data.Failures[0].ID)
	assert.Equal(t, "fetch", resp.Data.Failures[0].Op)
	assert.Contains(t, resp.Data.Failures[0].Error, "HTTP 503")
}

func TestRunRequiresPresentation(t *testing.T) {
	f := newRunFixture(t)

	_, err := f.execute("text")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--presentation-id")
}

func TestRunPresentationFromEnv(t *testing.T) {
	f := newRunFixture(t)
	t.Setenv("SLIDER_PRESENTATION_ID", "deck-1")

	_, err := f.execute("text")
	require.NoError(t, err)
	assert.Equal(t, 2, f.fetcher.Total())
}

func TestRunConfigurationErrorExitCode(t *testing.T) {
	f := newRunFixture(t)
	f.svc.Put("deck-bad", testutil.Deck(testutil.SlideSpec{ID: "x", Layout: "layout-gone"}))

	_, err := f.execute("text", "-p", "deck-bad")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodePresentation, errorCode(err))
}

func TestRunRemoteFailureExitCode(t *testing.T) {
	f := newRunFixture(t)
	f.svc.CopyErr = errors.New("quota exceeded")

	_, err := f.execute("text", "-p", "deck-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRunMetricsFile(t *testing.T) {
	f := newRunFixture(t)
	path := filepath.Join(t.TempDir(), "slider.prom")

	_, err := f.execute("text", "-p", "deck-1", "--metrics-file", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRunWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SLIDER_STORE_DIR", dir)

	code, _, stderr := execute(t, "run", "-p", "deck-1")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "credentials")
}

func TestRunError(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(runError(context.Canceled)))
	assert.Contains(t, runError(context.Canceled).Error(), "interrupted")
	assert.Equal(t, ExitFailure, GetExitCode(runError(errors.New("boom"))))
}
