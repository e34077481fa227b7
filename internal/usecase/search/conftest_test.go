package search

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/lexora/kbsearch/internal/domain"
)

// queryVec is the canned query embedding used across service tests. Unit
// vectors built with simVec then give exact cosine similarities against it.
var queryVec = []float32{1, 0}

// simVec returns a unit vector whose cosine similarity to queryVec is sim.
func simVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

// mockEmbedder maps exact texts to canned vectors. Unknown texts get a
// vector orthogonal to queryVec (similarity 0).
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	errs    map[string]error

	embedCalls []string
	batchCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls = append(m.embedCalls, text)
	if err, ok := m.errs[text]; ok {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: m.vectorFor(text)}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	res := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		if _, ok := m.errs[text]; ok {
			res.Failed++ // failed slot keeps a nil vector
			continue
		}
		res.Embeddings[i] = m.vectorFor(text)
	}
	return res, nil
}

func (m *mockEmbedder) vectorFor(text string) []float32 {
	if vec, ok := m.vectors[text]; ok {
		return vec
	}
	return []float32{0, 1}
}

// mockExtractor maps URLs to canned content; unknown URLs yield "".
type mockExtractor struct {
	mu      sync.Mutex
	content map[string]string
	calls   []string
}

func (m *mockExtractor) Extract(_ context.Context, url string, _ domain.DocumentType) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, url)
	return m.content[url]
}

func newTestService(emb *mockEmbedder, ext *mockExtractor) *Service {
	if emb.vectors == nil {
		emb.vectors = map[string][]float32{}
	}
	if ext.content == nil {
		ext.content = map[string]string{}
	}
	return New(emb, emb, ext, DefaultConfig(), zap.NewNop())
}

// doc builds a searchable document whose BasicText is predictable.
func doc(id, title string) domain.SearchableDocument {
	return domain.SearchableDocument{
		ID:          id,
		Title:       title,
		Description: "desc",
		Tags:        []string{"tag"},
		Type:        domain.TypeDocument,
		URL:         "https://example.com/" + id,
	}
}
