package embedding

import (
	"context"

	"go.uber.org/zap"

	"github.com/lexora/kbsearch/internal/domain"
	"github.com/lexora/kbsearch/internal/retry"
)

// RetryEmbedder retries transient provider failures (rate limits, 5xx,
// network errors) with exponential backoff. Permanent errors such as bad
// requests pass through immediately.
type RetryEmbedder struct {
	inner  domain.Embedder
	cfg    retry.Config
	logger *zap.Logger
}

// NewRetryEmbedder wraps an embedder with retry on transient errors.
func NewRetryEmbedder(inner domain.Embedder, cfg retry.Config, logger *zap.Logger) *RetryEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryEmbedder{inner: inner, cfg: cfg, logger: logger}
}

// Embed delegates to the inner embedder, retrying transient failures.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var result domain.EmbeddingResult

	err := retry.Do(ctx, r.cfg, domain.IsTransient, func() error {
		var innerErr error
		result, innerErr = r.inner.Embed(ctx, text)
		if innerErr != nil && domain.IsTransient(innerErr) {
			r.logger.Warn("Transient embedding error, will retry", zap.Error(innerErr))
		}
		return innerErr
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return result, nil
}

// BatchEmbed delegates to the inner embedder, retrying the whole batch on
// transient failures.
func (r *RetryEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var result domain.BatchEmbeddingResult

	err := retry.Do(ctx, r.cfg, domain.IsTransient, func() error {
		var innerErr error
		result, innerErr = r.batchInner(ctx, texts)
		if innerErr != nil && domain.IsTransient(innerErr) {
			r.logger.Warn("Transient batch embedding error, will retry",
				zap.Int("batch_size", len(texts)),
				zap.Error(innerErr),
			)
		}
		return innerErr
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return result, nil
}

func (r *RetryEmbedder) batchInner(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := r.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, r.inner, texts)
}
