package chi

import "github.com/lexora/kbsearch/internal/domain"

// ErrorResponseCode identifies an error category in API responses.
type ErrorResponseCode string

const (
	CodeBadRequest             ErrorResponseCode = "bad_request"
	CodeValidationFailed       ErrorResponseCode = "validation_failed"
	CodeRateLimited            ErrorResponseCode = "rate_limited"
	CodeEmbeddingProviderError ErrorResponseCode = "embedding_provider_error"
	CodeInternalError          ErrorResponseCode = "internal_error"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SearchRequest is the POST /search payload. Threshold is optional; the
// configured default applies when absent.
type SearchRequest struct {
	Query     string                      `json:"query"`
	Documents []domain.SearchableDocument `json:"documents"`
	Threshold *float64                    `json:"threshold,omitempty"`
}

// ExtractRequest is the POST /extract payload.
type ExtractRequest struct {
	URL  string              `json:"url"`
	Type domain.DocumentType `json:"type"`
}

// ExtractResponse carries extracted plain text. Content is "" when the URL
// could not be fetched or parsed; that is not an error.
type ExtractResponse struct {
	Content       string `json:"content"`
	ContentLength int    `json:"contentLength"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
