// Package search implements the two-stage hybrid ranking pipeline: a cheap
// metadata-only pre-filter prunes clearly irrelevant documents before the
// expensive pass that fetches and embeds full document content.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexora/kbsearch/internal/domain"
	"github.com/lexora/kbsearch/internal/metrics"
	"github.com/lexora/kbsearch/internal/usecase/query"
)

// Config holds the ranking tuning knobs. The defaults mirror observed
// production values; they are knobs, not invariants.
type Config struct {
	// PrefilterMultiplier widens stage 1: documents survive at
	// threshold * multiplier so content not yet examined can still push
	// them over the real threshold in stage 2.
	PrefilterMultiplier float64
	// DeepBatchSize caps how many documents stage 2 processes concurrently.
	DeepBatchSize int
	// ShortQueryMaxLen and ShortQueryFloor implement the short-query guard:
	// queries of at most MaxLen characters must clear Floor regardless of
	// the caller's threshold. Acronym-length queries produce spurious high
	// similarities otherwise.
	ShortQueryMaxLen int
	ShortQueryFloor  float64
}

// DefaultConfig returns the production tuning values.
func DefaultConfig() Config {
	return Config{
		PrefilterMultiplier: 0.7,
		DeepBatchSize:       3,
		ShortQueryMaxLen:    3,
		ShortQueryFloor:     0.7,
	}
}

// Response is the search result set plus pipeline metadata.
type Response struct {
	Results      []domain.RankedResult `json:"results"`
	CleanedQuery string                `json:"cleanedQuery"`
	Message      string                `json:"message,omitempty"`

	TotalProcessed   int   `json:"totalProcessed"`
	PreFiltered      int   `json:"preFiltered"`
	TotalReturned    int   `json:"totalReturned"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// Service ranks documents against a query.
type Service struct {
	queryEmbed QueryEmbedder
	docEmbed   DocumentEmbedder
	extractor  ContentExtractor
	cfg        Config
	logger     *zap.Logger
}

// New creates a search service.
func New(
	queryEmbed QueryEmbedder, docEmbed DocumentEmbedder,
	extractor ContentExtractor, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.PrefilterMultiplier <= 0 {
		cfg.PrefilterMultiplier = DefaultConfig().PrefilterMultiplier
	}
	if cfg.DeepBatchSize <= 0 {
		cfg.DeepBatchSize = DefaultConfig().DeepBatchSize
	}
	if cfg.ShortQueryFloor <= 0 {
		cfg.ShortQueryFloor = DefaultConfig().ShortQueryFloor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		queryEmbed: queryEmbed,
		docEmbed:   docEmbed,
		extractor:  extractor,
		cfg:        cfg,
		logger:     logger,
	}
}

// candidate is a document that survived stage 1, carrying its pre-filter
// similarity as the stage-2 fallback score.
type candidate struct {
	doc       domain.SearchableDocument
	basicText string
	basicSim  float64
}

// Search ranks documents against the query and returns those whose final
// similarity clears the threshold, sorted descending. A failure embedding a
// single document degrades that document's score; a failure embedding the
// query itself fails the whole call.
func (s *Service) Search(
	ctx context.Context, rawQuery string, documents []domain.SearchableDocument, threshold float64,
) (Response, error) {
	start := time.Now()
	defer func() {
		metrics.SearchRequestDuration.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(rawQuery) == "" {
		return Response{}, fmt.Errorf("%w: query is empty", domain.ErrNoKeywords)
	}

	cleaned := query.Normalize(rawQuery)
	metrics.SearchDocumentsTotal.WithLabelValues("received").Add(float64(len(documents)))

	if len(documents) == 0 {
		return Response{
			Results:          []domain.RankedResult{},
			CleanedQuery:     cleaned,
			Message:          "no documents to search",
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	queryVec, err := s.embedQuery(ctx, cleaned)
	if err != nil {
		return Response{}, err
	}

	candidates, err := s.prefilter(ctx, documents, queryVec, threshold)
	if err != nil {
		return Response{}, err
	}
	metrics.SearchDocumentsTotal.WithLabelValues("prefiltered").Add(float64(len(candidates)))

	results := s.deepPass(ctx, candidates, queryVec, threshold, rawQuery)
	metrics.SearchDocumentsTotal.WithLabelValues("returned").Add(float64(len(results)))

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	resp := Response{
		Results:          results,
		CleanedQuery:     cleaned,
		TotalProcessed:   len(documents),
		PreFiltered:      len(candidates),
		TotalReturned:    len(results),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
	if len(results) == 0 {
		resp.Message = "no results above threshold"
	}

	s.logger.Info("Search completed",
		zap.String("cleaned_query", cleaned),
		zap.Int("total_processed", resp.TotalProcessed),
		zap.Int("pre_filtered", resp.PreFiltered),
		zap.Int("total_returned", resp.TotalReturned),
		zap.Int64("processing_time_ms", resp.ProcessingTimeMs),
	)

	return resp, nil
}

// embedQuery embeds the cleaned query. This vector is reused for every
// similarity computation in the call, so failure here is fatal.
func (s *Service) embedQuery(ctx context.Context, cleaned string) ([]float32, error) {
	res, err := s.queryEmbed.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryEmbeddingFailed, err)
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("%w: provider returned empty vector", domain.ErrQueryEmbeddingFailed)
	}
	return res.Embedding, nil
}

// prefilter embeds each document's metadata-only text and keeps documents at
// threshold * PrefilterMultiplier. Documents whose embedding failed inside
// the batch get a zero similarity and drop out here.
func (s *Service) prefilter(
	ctx context.Context, documents []domain.SearchableDocument,
	queryVec []float32, threshold float64,
) ([]candidate, error) {
	texts := make([]string, len(documents))
	for i := range documents {
		texts[i] = documents[i].BasicText()
	}

	batch, err := s.docEmbed.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("prefilter embed: %w", err)
	}
	if batch.Failed > 0 {
		s.logger.Warn("Some documents failed to embed in pre-filter",
			zap.Int("failed", batch.Failed),
			zap.Int("total", len(documents)),
		)
	}

	cutoff := threshold * s.cfg.PrefilterMultiplier
	var candidates []candidate
	for i, doc := range documents {
		sim := CosineSimilarity(queryVec, batch.Embeddings[i])
		if sim >= cutoff {
			candidates = append(candidates, candidate{
				doc:       doc,
				basicText: texts[i],
				basicSim:  sim,
			})
		}
	}
	return candidates, nil
}

// deepPass extracts content and re-scores candidates in sequential batches
// of DeepBatchSize; documents within a batch run concurrently. Per-document
// failures fall back to the stage-1 similarity.
func (s *Service) deepPass(
	ctx context.Context, candidates []candidate,
	queryVec []float32, threshold float64, rawQuery string,
) []domain.RankedResult {
	scored := make([]domain.RankedResult, len(candidates))

	for offset := 0; offset < len(candidates); offset += s.cfg.DeepBatchSize {
		end := offset + s.cfg.DeepBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := offset; i < end; i++ {
			i := i
			g.Go(func() error {
				scored[i] = s.scoreDeep(gctx, candidates[i], queryVec)
				return nil
			})
		}
		_ = g.Wait() // goroutines never return errors; failures degrade scores
	}

	floor := threshold
	if s.isShortQuery(rawQuery) && s.cfg.ShortQueryFloor > floor {
		floor = s.cfg.ShortQueryFloor
	}

	results := make([]domain.RankedResult, 0, len(scored))
	for _, r := range scored {
		if r.Similarity >= floor {
			results = append(results, r)
		}
	}
	return results
}

// scoreDeep computes a candidate's final similarity from metadata plus
// extracted content. Extraction failures yield "" and embedding failures
// fall back to the pre-filter similarity, so this never drops a candidate
// on error.
func (s *Service) scoreDeep(
	ctx context.Context, c candidate, queryVec []float32,
) domain.RankedResult {
	content := s.extractor.Extract(ctx, c.doc.URL, c.doc.Type)

	result := domain.RankedResult{
		SearchableDocument:     c.doc,
		Similarity:             c.basicSim,
		ExtractedContentLength: len(content),
		HasExtractedContent:    content != "",
	}

	fullText := c.basicText
	if content != "" {
		fullText = c.basicText + " " + content
	}

	res, err := s.docEmbed.Embed(ctx, fullText)
	if err != nil || len(res.Embedding) == 0 {
		s.logger.Warn("Deep embedding failed, using pre-filter similarity",
			zap.String("document_id", c.doc.ID),
			zap.Error(err),
		)
		return result
	}

	result.Similarity = CosineSimilarity(queryVec, res.Embedding)
	return result
}

// isShortQuery checks the original query, not the cleaned one: cleaning can
// only shrink the query, and the guard keys off what the user typed.
func (s *Service) isShortQuery(rawQuery string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(rawQuery)) <= s.cfg.ShortQueryMaxLen
}
