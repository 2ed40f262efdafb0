package slides

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/roach88/slider/internal/edits"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts.Endpoints = Endpoints{Slides: srv.URL, Drive: srv.URL, Export: srv.URL}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = time.Millisecond
	}
	if opts.RatePerSecond == 0 {
		opts.RatePerSecond = 1000
		opts.Burst = 100
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return New(context.Background(), ts, opts)
}

func TestPresentation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/presentations/deck-1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"presentationId":"deck-1"}`)
	}, Options{})

	data, err := c.Presentation(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"presentationId":"deck-1"}`, string(data))
}

func TestPresentationNotFound(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
	}, Options{})

	_, err := c.Presentation(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Contains(t, err.Error(), "read presentation nope")
	assert.Equal(t, int32(1), hits.Load(), "client errors are not retried")
}

func TestPresentationRetriesGatewayErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}, Options{})

	_, err := c.Presentation(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestPresentationGivesUp(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, Options{MaxRetries: 2})

	_, err := c.Presentation(context.Background(), "deck-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Equal(t, int32(3), hits.Load())
}

func TestBatchUpdate(t *testing.T) {
	var got edits.Batch
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/presentations/deck-1:batchUpdate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"replies":[{}]}`)
	}, Options{})

	reqs := []edits.Request{{DeleteObject: &edits.DeleteObject{ObjectID: "logo"}}}
	require.NoError(t, c.BatchUpdate(context.Background(), "deck-1", reqs))
	assert.Equal(t, edits.Batch{Requests: reqs}, got)
}

func TestBatchUpdateEmptyIsNotSent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL)
	}, Options{})

	assert.NoError(t, c.BatchUpdate(context.Background(), "deck-1", nil))
}

func TestBatchUpdateFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid requests[0]", http.StatusBadRequest)
	}, Options{})

	err := c.BatchUpdate(context.Background(), "deck-1", []edits.Request{edits.TransparentBackground("p1")})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "invalid requests[0]", se.Body)
}

func TestCopy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/drive/v3/files/deck-1/copy", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"name": "Slider::abc Deck"}, body)

		_, _ = io.WriteString(w, `{"kind":"drive#file","id":"copy-9","name":"Slider::abc Deck"}`)
	}, Options{})

	id, err := c.Copy(context.Background(), "deck-1", "Slider::abc Deck")
	require.NoError(t, err)
	assert.Equal(t, "copy-9", id)
}

func TestCopyWithoutID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}, Options{})

	_, err := c.Copy(context.Background(), "deck-1", "x")
	assert.ErrorContains(t, err, "no id")
}

func TestDelete(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/drive/v3/files/copy-9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}, Options{})

	require.NoError(t, c.Delete(context.Background(), "copy-9"))
	assert.True(t, called)
}

func TestExport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/presentation/d/copy-9/export/png", r.URL.Path)
		assert.Equal(t, "copy-9", r.URL.Query().Get("id"))
		assert.Equal(t, "p1", r.URL.Query().Get("pageid"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}, Options{})

	data, err := c.Exporter("copy-9").Fetch(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data)
}

func TestExportURL(t *testing.T) {
	c := New(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"}), Options{})
	e := c.Exporter("doc 1").(*Exporter)

	assert.Equal(t, "https://docs.google.com/presentation/d/doc%201/export/png?id=doc+1&pageid=g1_0", e.URL("g1_0"))
}

func TestExportNonOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, Options{})

	_, err := c.Exporter("copy-9").Fetch(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Contains(t, err.Error(), "export page p1")
}

func TestExportBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, Options{BreakerFailures: 2, BreakerCooldown: time.Hour})

	ex := c.Exporter("copy-9")
	for i := 0; i < 2; i++ {
		_, err := ex.Fetch(context.Background(), "p1")
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	}

	_, err := ex.Fetch(context.Background(), "p2")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "got %v", err)
	assert.Equal(t, int32(2), hits.Load(), "open breaker short-circuits")
}

func TestExportCanceled(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Exporter("copy-9").Fetch(ctx, "p1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Method: "GET", URL: "https://x/y", StatusCode: 500}
	assert.Equal(t, "GET https://x/y: HTTP 500", err.Error())
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
