package embedding

import (
	"context"
	"sync"

	"github.com/lexora/kbsearch/internal/domain"
)

// mockEmbedder is configurable per text: embedErrs marks texts whose
// single-item Embed fails, batchErr fails every BatchEmbed call.
type mockEmbedder struct {
	mu         sync.Mutex
	embedCalls []string
	batchCalls [][]string

	embedErrs map[string]error
	batchErr  error
	tokens    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls = append(m.embedCalls, text)
	if err, ok := m.embedErrs[text]; ok {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    vectorFor(text),
		PromptTokens: m.tokens,
		TotalTokens:  m.tokens,
	}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls = append(m.batchCalls, texts)
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = vectorFor(text)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.tokens * len(texts),
		TotalTokens:  m.tokens * len(texts),
	}, nil
}

// vectorFor produces a distinct deterministic vector per text so tests can
// assert positional correctness.
func vectorFor(text string) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text))}
}
