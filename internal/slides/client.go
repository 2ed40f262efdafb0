package slides

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/roach88/slider/internal/edits"
)

// Endpoints are the base URLs of the three services slider uses.
type Endpoints struct {
	Slides string
	Drive  string
	Export string
}

// DefaultEndpoints are the production service URLs.
var DefaultEndpoints = Endpoints{
	Slides: "https://slides.googleapis.com",
	Drive:  "https://www.googleapis.com",
	Export: "https://docs.google.com",
}

const (
	defaultTimeout         = 60 * time.Second
	defaultRatePerSecond   = 5
	defaultBurst           = 1
	defaultBreakerFailures = 5
	defaultMaxRetries      = 2
	defaultBaseBackoff     = 500 * time.Millisecond

	// maxErrorBody bounds how much of a failed response is kept.
	maxErrorBody = 512
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	Endpoints Endpoints

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RatePerSecond and Burst limit page exports.
	RatePerSecond float64
	Burst         int

	// BreakerFailures is the number of consecutive failed exports that
	// opens the circuit breaker.
	BreakerFailures uint32

	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration

	// MaxRetries and BaseBackoff control retries of reads on 429 and 5xx
	// gateway errors.
	MaxRetries  int
	BaseBackoff time.Duration

	Logger *slog.Logger
}

// Client calls the presentation, file and export services.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	opts      Options
	logger    *slog.Logger
}

// New creates a client authorised by ts.
func New(ctx context.Context, ts oauth2.TokenSource, opts Options) *Client {
	if opts.Endpoints.Slides == "" {
		opts.Endpoints.Slides = DefaultEndpoints.Slides
	}
	if opts.Endpoints.Drive == "" {
		opts.Endpoints.Drive = DefaultEndpoints.Drive
	}
	if opts.Endpoints.Export == "" {
		opts.Endpoints.Export = DefaultEndpoints.Export
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = defaultRatePerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaultBreakerFailures
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = opts.Timeout

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "export",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		http:      httpClient,
		endpoints: opts.Endpoints,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		breaker:   breaker,
		opts:      opts,
		logger:    logger,
	}
}

// Presentation returns the raw JSON document of a presentation.
func (c *Client) Presentation(ctx context.Context, id string) ([]byte, error) {
	u := c.endpoints.Slides + "/v1/presentations/" + url.PathEscape(id)
	data, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("read presentation %s: %w", id, err)
	}
	return data, nil
}

// BatchUpdate submits reqs as one batch. An empty batch is not sent.
func (c *Client) BatchUpdate(ctx context.Context, id string, reqs []edits.Request) error {
	if len(reqs) == 0 {
		return nil
	}
	u := c.endpoints.Slides + "/v1/presentations/" + url.PathEscape(id) + ":batchUpdate"
	if _, err := c.send(ctx, http.MethodPost, u, edits.Batch{Requests: reqs}); err != nil {
		return fmt.Errorf("batch update %s (%d requests): %w", id, len(reqs), err)
	}
	c.logger.Debug("batch update applied", "presentation", id, "requests", len(reqs))
	return nil
}

// Copy duplicates a file under a new name and returns the copy's id.
func (c *Client) Copy(ctx context.Context, id, name string) (string, error) {
	u := c.endpoints.Drive + "/drive/v3/files/" + url.PathEscape(id) + "/copy"
	data, err := c.send(ctx, http.MethodPost, u, map[string]string{"name": name})
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", id, err)
	}

	var file struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return "", fmt.Errorf("copy %s: decode response: %w", id, err)
	}
	if file.ID == "" {
		return "", fmt.Errorf("copy %s: response has no id", id)
	}
	return file.ID, nil
}

// Delete removes a file.
func (c *Client) Delete(ctx context.Context, id string) error {
	u := c.endpoints.Drive + "/drive/v3/files/" + url.PathEscape(id)
	if _, err := c.send(ctx, http.MethodDelete, u, nil); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// get performs a GET, retrying throttled and gateway failures with
// exponential backoff.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.opts.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := c.send(ctx, http.MethodGet, u, nil)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable(StatusCode(err)) {
			return nil, err
		}
		c.logger.Debug("retrying request", "url", u, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// send performs one request with an optional JSON body and returns the
// response body of a 2xx reply.
func (c *Client) send(ctx context.Context, method, u string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readAll(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}
	}
	return data, nil
}

func readAll(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
