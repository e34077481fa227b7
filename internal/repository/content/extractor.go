// Package content extracts searchable text from remote document URLs.
//
// Extraction is strictly best-effort: every failure mode (timeout, bad
// status, unsupported content type, cache trouble) degrades to an empty
// string. Callers treat empty content as "no extra signal", never as an
// error to propagate.
package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lexora/kbsearch/internal/db"
	"github.com/lexora/kbsearch/internal/domain"
	"github.com/lexora/kbsearch/internal/metrics"
	"github.com/lexora/kbsearch/internal/transport/fetch"
)

const cacheKeyPrefix = "kbsearch:content:"

const googleDocsHost = "docs.google.com"

// pageFetcher is the consumer interface for raw page retrieval (ISP).
type pageFetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (fetch.Result, error)
}

// Config holds extraction bounds.
type Config struct {
	FetchTimeout  time.Duration // deadline for the primary URL fetch
	ExportTimeout time.Duration // shorter deadline for the Google Docs export fetch
	MaxChars      int           // truncation cap applied before caching and returning
	CacheTTL      time.Duration // freshness window for cached content
}

// Extractor fetches and cleans remote document content, caching results by URL.
type Extractor struct {
	fetcher pageFetcher
	cache   db.KVStore
	cfg     Config
	logger  *zap.Logger
}

// New creates an Extractor. cache may be nil to disable caching.
func New(fetcher pageFetcher, cache db.KVStore, cfg Config, logger *zap.Logger) *Extractor {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = 3 * time.Second
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 4000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{fetcher: fetcher, cache: cache, cfg: cfg, logger: logger}
}

// Extract returns cleaned text content for the URL, or "" when nothing can be
// extracted. It never returns an error.
func (e *Extractor) Extract(ctx context.Context, url string, docType domain.DocumentType) string {
	return e.ExtractLimit(ctx, url, docType, e.cfg.MaxChars)
}

// ExtractLimit is Extract with a caller-supplied truncation cap, used by the
// standalone extraction endpoint which allows more content than the search path.
func (e *Extractor) ExtractLimit(ctx context.Context, url string, docType domain.DocumentType, limit int) string {
	if url == "" {
		return ""
	}

	key := cacheKey(url)

	if cached, ok := e.getCached(ctx, key); ok {
		metrics.ExtractionCacheTotal.WithLabelValues("hit").Inc()
		return truncate(cached, limit)
	}
	metrics.ExtractionCacheTotal.WithLabelValues("miss").Inc()

	content := e.extract(ctx, url, docType)
	if content == "" {
		metrics.ExtractionsTotal.WithLabelValues("empty").Inc()
		return ""
	}
	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()

	// Cache before applying the caller's cap so a later call with a larger
	// limit still gets the full stored content. Last write wins; a duplicate
	// in-flight fetch for the same URL merely wastes work.
	content = truncate(content, e.cfg.MaxChars)
	e.putCached(ctx, key, content)

	return truncate(content, limit)
}

func (e *Extractor) extract(ctx context.Context, url string, docType domain.DocumentType) string {
	if strings.Contains(url, googleDocsHost) {
		return e.extractGoogleDoc(ctx, url)
	}

	res, err := e.fetcher.Fetch(ctx, url, e.cfg.FetchTimeout)
	if err != nil {
		e.logger.Debug("Content fetch failed",
			zap.String("url", url),
			zap.String("type", string(docType)),
			zap.Error(err),
		)
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return ""
	}

	ct := strings.ToLower(res.ContentType)
	switch {
	case strings.Contains(ct, "html"):
		return stripHTML(res.Body)
	case strings.Contains(ct, "text"):
		return strings.TrimSpace(res.Body)
	default:
		// Binary, video, pdf: nothing to extract here.
		return ""
	}
}

// extractGoogleDoc fetches the plain-text export for a Google Doc. There is
// no fallback to scraping the original URL: its HTML is an editor shell, not
// the document body.
func (e *Extractor) extractGoogleDoc(ctx context.Context, url string) string {
	docID := googleDocID(url)
	if docID == "" {
		return ""
	}

	exportURL := "https://docs.google.com/document/d/" + docID + "/export?format=txt"

	res, err := e.fetcher.Fetch(ctx, exportURL, e.cfg.ExportTimeout)
	if err != nil {
		e.logger.Debug("Google Docs export failed", zap.String("url", url), zap.Error(err))
		metrics.ExtractionsTotal.WithLabelValues("error").Inc()
		return ""
	}
	return strings.TrimSpace(res.Body)
}

func (e *Extractor) getCached(ctx context.Context, key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			e.logger.Warn("Failed to read content cache", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return string(data), true
}

func (e *Extractor) putCached(ctx context.Context, key, content string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetWithTTL(ctx, key, []byte(content), e.cfg.CacheTTL); err != nil {
		e.logger.Warn("Failed to write content cache", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(url string) string {
	h := sha256.Sum256([]byte(url))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
