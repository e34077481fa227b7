// Package kbsearch embeds the hybrid semantic search pipeline for in-process
// use: query normalization, two-stage embedding-based ranking, and cached
// content extraction, without running the HTTP server.
package kbsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lexora/kbsearch/internal/db"
	dbMemory "github.com/lexora/kbsearch/internal/db/memory"
	dbRedis "github.com/lexora/kbsearch/internal/db/redis"
	"github.com/lexora/kbsearch/internal/domain"
	"github.com/lexora/kbsearch/internal/repository/content"
	"github.com/lexora/kbsearch/internal/repository/embcache"
	"github.com/lexora/kbsearch/internal/retry"
	"github.com/lexora/kbsearch/internal/transport/fetch"
	openaiEmb "github.com/lexora/kbsearch/internal/transport/openai"
	embeddinguc "github.com/lexora/kbsearch/internal/usecase/embedding"
	searchuc "github.com/lexora/kbsearch/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// DocumentType identifies how a document's content can be extracted.
type DocumentType string

const (
	TypeDocument DocumentType = "document"
	TypeVideo    DocumentType = "video"
	TypePDF      DocumentType = "pdf"
)

// Document is a searchable knowledge-base entry. Content is never stored;
// it is fetched from URL on demand during ranking.
type Document struct {
	ID          string
	Title       string
	Description string
	Tags        []string
	Type        DocumentType
	URL         string
}

// RankedResult is a document that cleared the similarity threshold.
type RankedResult struct {
	Document
	Similarity             float64
	ExtractedContentLength int
	HasExtractedContent    bool
}

// SearchResponse carries ranked results plus pipeline metadata.
type SearchResponse struct {
	Results      []RankedResult
	CleanedQuery string
	Message      string

	TotalProcessed   int
	PreFiltered      int
	TotalReturned    int
	ProcessingTimeMs int64
}

// Embedder is the pluggable embedding provider contract.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult is one embedding plus provider token accounting.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Client is the kbsearch SDK entry point.
type Client struct {
	store            db.Store
	searchSvc        *searchuc.Service
	extractor        *content.Extractor
	defaultThreshold float64
}

// New creates a Client. An embedding provider is required: configure one
// with WithOpenAI or WithEmbedder.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		contentTTL:       10 * time.Minute,
		fetchTimeout:     5 * time.Second,
		defaultThreshold: 0.3,
		batchSize:        3,
		userAgent:        "Mozilla/5.0 (compatible; kbsearch-bot/1.0)",
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil && cfg.openAIKey == "" {
		return nil, errors.New("kbsearch: embedding provider required (use WithOpenAI or WithEmbedder)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("kbsearch: cache store not ready: %w", err)
	}

	return wireClient(store, cfg, logger), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	if len(cfg.redisAddrs) == 0 {
		return dbMemory.NewStore(), nil
	}
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("kbsearch: create redis store: %w", err)
	}
	return s, nil
}

func wireClient(store db.Store, cfg *clientConfig, logger *zap.Logger) *Client {
	var base domain.Embedder
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	} else {
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIBaseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
	}

	cached := embcache.New(base, store, nil, logger)
	docEmbedder := embeddinguc.NewBatchedEmbedder(cached, cfg.batchSize, logger)
	queryEmbedder := embeddinguc.NewRetryEmbedder(cached, retry.DefaultConfig(), logger)

	extractor := content.New(fetch.New(cfg.userAgent), store, content.Config{
		FetchTimeout: cfg.fetchTimeout,
		CacheTTL:     cfg.contentTTL,
	}, logger)

	searchSvc := searchuc.New(queryEmbedder, docEmbedder, extractor, searchuc.Config{
		PrefilterMultiplier: cfg.prefilterMultiplier,
		DeepBatchSize:       cfg.deepBatchSize,
	}, logger)

	return &Client{
		store:            store,
		searchSvc:        searchSvc,
		extractor:        extractor,
		defaultThreshold: cfg.defaultThreshold,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks cache store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search ranks documents against the query. A threshold of 0 uses the
// configured default.
func (c *Client) Search(
	ctx context.Context, query string, documents []Document, threshold float64,
) (SearchResponse, error) {
	if threshold == 0 {
		threshold = c.defaultThreshold
	}

	docs := make([]domain.SearchableDocument, len(documents))
	for i, d := range documents {
		docs[i] = documentToDomain(d)
		if err := docs[i].Validate(); err != nil {
			return SearchResponse{}, fmt.Errorf("kbsearch: %w", err)
		}
	}

	resp, err := c.searchSvc.Search(ctx, query, docs, threshold)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("kbsearch: %w", err)
	}
	return responseFromDomain(resp), nil
}

// ExtractContent fetches and cleans the text behind a URL, or returns ""
// when nothing can be extracted.
func (c *Client) ExtractContent(ctx context.Context, url string, docType DocumentType) string {
	return c.extractor.Extract(ctx, url, domain.DocumentType(docType))
}

func documentToDomain(d Document) domain.SearchableDocument {
	return domain.SearchableDocument{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		Type:        domain.DocumentType(d.Type),
		URL:         d.URL,
	}
}

func responseFromDomain(resp searchuc.Response) SearchResponse {
	results := make([]RankedResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = RankedResult{
			Document: Document{
				ID:          r.ID,
				Title:       r.Title,
				Description: r.Description,
				Tags:        r.Tags,
				Type:        DocumentType(r.Type),
				URL:         r.URL,
			},
			Similarity:             r.Similarity,
			ExtractedContentLength: r.ExtractedContentLength,
			HasExtractedContent:    r.HasExtractedContent,
		}
	}
	return SearchResponse{
		Results:          results,
		CleanedQuery:     resp.CleanedQuery,
		Message:          resp.Message,
		TotalProcessed:   resp.TotalProcessed,
		PreFiltered:      resp.PreFiltered,
		TotalReturned:    resp.TotalReturned,
		ProcessingTimeMs: resp.ProcessingTimeMs,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
