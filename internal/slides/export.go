package slides

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/roach88/slider/internal/cache"
)

// Exporter renders pages of one document as PNG images.
type Exporter struct {
	client *Client
	docID  string
}

// Exporter returns a fetcher for the pages of docID.
func (c *Client) Exporter(docID string) cache.Fetcher {
	return &Exporter{client: c, docID: docID}
}

// URL returns the export address of a page.
func (e *Exporter) URL(pageID string) string {
	q := url.Values{}
	q.Set("id", e.docID)
	q.Set("pageid", pageID)
	return e.client.endpoints.Export + "/presentation/d/" + url.PathEscape(e.docID) + "/export/png?" + q.Encode()
}

// Fetch downloads one page. Anything but HTTP 200 is a *StatusError.
// Calls wait for the client's rate limiter and fail immediately with
// gobreaker.ErrOpenState while the breaker is open.
func (e *Exporter) Fetch(ctx context.Context, pageID string) ([]byte, error) {
	if err := e.client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	u := e.URL(pageID)
	out, err := e.client.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := e.client.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Method: http.MethodGet, URL: u, StatusCode: resp.StatusCode}
		}
		return readAll(resp)
	})
	if err != nil {
		return nil, fmt.Errorf("export page %s: %w", pageID, err)
	}

	e.client.logger.Debug("exported page", "presentation", e.docID, "id", pageID, "bytes", len(out.([]byte)))
	return out.([]byte), nil
}
