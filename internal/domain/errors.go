package domain

import "errors"

var (
	// ErrInvalidInput signals a malformed search or extract request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoKeywords signals a query with no usable content after normalization.
	ErrNoKeywords = errors.New("no meaningful keywords in query")
	// ErrRateLimited signals a rate limit hit at the embedding provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrProviderUnavailable signals a transient provider failure (5xx, network).
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrQueryEmbeddingFailed signals that the query itself could not be embedded.
	// Unlike per-document failures this one is fatal to the whole search.
	ErrQueryEmbeddingFailed = errors.New("query embedding failed")
)

// IsTransient reports whether an error is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}
