// Package embedding provides decorators around domain.Embedder: chunked
// batch processing with per-item fallback, retry on transient provider
// errors, and request logging.
package embedding

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexora/kbsearch/internal/domain"
)

// DefaultChunkSize is the number of texts sent to the provider per request.
const DefaultChunkSize = 3

// BatchedEmbedder splits batch requests into fixed-size chunks. A failed
// chunk degrades to per-item requests so one bad input cannot sink the
// whole batch; items that still fail get an empty vector and are counted
// in Failed.
type BatchedEmbedder struct {
	inner     domain.Embedder
	chunkSize int
	logger    *zap.Logger
}

// NewBatchedEmbedder wraps an embedder with chunked batch processing.
func NewBatchedEmbedder(inner domain.Embedder, chunkSize int, logger *zap.Logger) *BatchedEmbedder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchedEmbedder{
		inner:     inner,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Embed delegates to the inner embedder.
func (b *BatchedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return b.inner.Embed(ctx, text)
}

// BatchEmbed embeds texts in chunks of chunkSize. The result always has one
// vector slot per input text, in input order; slots for failed items are nil.
func (b *BatchedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := domain.BatchEmbeddingResult{
		Embeddings: make([][]float32, len(texts)),
	}

	for offset := 0; offset < len(texts); offset += b.chunkSize {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}

		end := offset + b.chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[offset:end]

		res, err := b.embedChunk(ctx, chunk)
		if err != nil {
			b.logger.Warn("Chunk embedding failed, falling back to per-item requests",
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			res = b.embedByItem(ctx, chunk)
		}

		copy(out.Embeddings[offset:end], res.Embeddings)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
		out.Failed += res.Failed
	}

	return out, nil
}

func (b *BatchedEmbedder) embedChunk(ctx context.Context, chunk []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := b.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, chunk)
	}
	return domain.BatchFallback(ctx, b.inner, chunk)
}

// embedByItem retries a failed chunk one text at a time, concurrently.
// Items that fail again keep a nil vector.
func (b *BatchedEmbedder) embedByItem(ctx context.Context, chunk []string) domain.BatchEmbeddingResult {
	out := domain.BatchEmbeddingResult{
		Embeddings: make([][]float32, len(chunk)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, text := range chunk {
		i, text := i, text
		g.Go(func() error {
			res, err := b.inner.Embed(gctx, text)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Warn("Per-item embedding failed",
					zap.Int("item", i),
					zap.Error(err),
				)
				out.Failed++
				return nil
			}
			out.Embeddings[i] = res.Embedding
			out.PromptTokens += res.PromptTokens
			out.TotalTokens += res.TotalTokens
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures are counted

	return out
}
