package content

import (
	"context"
	"errors"
	"time"

	"github.com/lexora/kbsearch/internal/transport/fetch"
)

// mockFetcher records calls and serves canned responses per URL.
type mockFetcher struct {
	responses map[string]fetch.Result
	err       error
	calls     int
	lastURL   string
	timeouts  []time.Duration
}

func (m *mockFetcher) Fetch(_ context.Context, url string, timeout time.Duration) (fetch.Result, error) {
	m.calls++
	m.lastURL = url
	m.timeouts = append(m.timeouts, timeout)
	if m.err != nil {
		return fetch.Result{}, m.err
	}
	res, ok := m.responses[url]
	if !ok {
		return fetch.Result{}, errors.New("no canned response for " + url)
	}
	return res, nil
}
