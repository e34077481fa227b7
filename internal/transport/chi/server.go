// Package chi exposes the search pipeline over HTTP: POST /search,
// POST /extract, GET /health, GET /metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lexora/kbsearch/internal/domain"
	"github.com/lexora/kbsearch/internal/logger"
	healthuc "github.com/lexora/kbsearch/internal/usecase/health"
	searchuc "github.com/lexora/kbsearch/internal/usecase/search"
)

// Searcher ranks documents against a query.
type Searcher interface {
	Search(ctx context.Context, query string, documents []domain.SearchableDocument, threshold float64) (searchuc.Response, error)
}

// Extractor pulls readable text from a URL, capped at limit characters.
type Extractor interface {
	ExtractLimit(ctx context.Context, url string, docType domain.DocumentType, limit int) string
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Config holds transport-level request limits and defaults.
type Config struct {
	DefaultThreshold float64
	MaxDocuments     int
	MaxExtractChars  int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	search        Searcher
	extractor     Extractor
	health        HealthChecker
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher, extractor Extractor, health HealthChecker,
	cfg Config, logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:    search,
		extractor: extractor,
		health:    health,
		cfg:       cfg,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrQueryEmbeddingFailed, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrNoKeywords, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
	}
	return s
}

// Routes registers the API endpoints on a router.
func (s *Server) Routes(r chirouter.Router) {
	r.Post("/search", s.SearchDocuments)
	r.Post("/extract", s.ExtractContent)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}
	if req.Documents == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "documents is required")
		return
	}
	if s.cfg.MaxDocuments > 0 && len(req.Documents) > s.cfg.MaxDocuments {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("documents count must not exceed %d", s.cfg.MaxDocuments))
		return
	}
	for i := range req.Documents {
		if err := req.Documents[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
	}

	threshold := s.cfg.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold <= 0 || threshold > 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "threshold must be in (0, 1]")
		return
	}

	resp, err := s.search.Search(r.Context(), req.Query, req.Documents, threshold)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ExtractContent handles POST /extract: a standalone content-extraction
// endpoint with a larger cap than the search pipeline uses.
func (s *Server) ExtractContent(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.URL == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "url is required")
		return
	}
	docType := req.Type
	if docType == "" {
		docType = domain.TypeDocument
	}

	content := s.extractor.ExtractLimit(r.Context(), req.URL, docType, s.cfg.MaxExtractChars)

	writeJSON(w, http.StatusOK, ExtractResponse{
		Content:       content,
		ContentLength: len(content),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrQueryEmbeddingFailed,
		domain.ErrRateLimited,
		domain.ErrProviderUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrNoKeywords,
		domain.ErrInvalidInput,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	reqLogger := logger.FromContext(r.Context())
	reqLogger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
