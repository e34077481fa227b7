// Package fetch retrieves remote document bodies over HTTP for content extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrBadStatus signals a non-2xx response.
var ErrBadStatus = errors.New("fetch: unexpected status")

// maxBodyBytes caps the read body. Extraction truncates to a few thousand
// characters anyway; there is no reason to buffer a multi-megabyte page.
const maxBodyBytes = 1 << 20

// Result is a fetched page body with its declared content type.
type Result struct {
	Body        string
	ContentType string
}

// Fetcher issues bounded HTTP GETs with a descriptive User-Agent.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher. The per-call timeout is passed to Fetch rather than
// fixed on the client, since call sites use different deadlines.
func New(userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{},
		userAgent: userAgent,
	}
}

// WithClient overrides the HTTP client. Test hook.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// Fetch GETs the URL with the given deadline. Timeouts surface as context
// errors; non-2xx responses as ErrBadStatus. The caller decides whether any
// of this is fatal.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: %d for %s", ErrBadStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	return Result{
		Body:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
