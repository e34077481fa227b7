package domain

import (
	"fmt"
	"strings"
)

// DocumentType classifies a searchable document by its source medium.
type DocumentType string

// Known document types. Content extraction only applies to Document;
// videos and PDFs are ranked on their metadata alone.
const (
	TypeDocument DocumentType = "document"
	TypeVideo    DocumentType = "video"
	TypePDF      DocumentType = "pdf"
)

// SearchableDocument is a caller-supplied document to rank. The service never
// persists documents; they live in the caller's store and arrive with every
// search request.
type SearchableDocument struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Type        DocumentType `json:"type"`
	URL         string       `json:"url,omitempty"`
}

// Validate checks the boundary invariants: metadata is always present,
// the URL may be absent (extraction then degrades to empty content).
func (d *SearchableDocument) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: document %q: title is required", ErrInvalidInput, d.ID)
	}
	switch d.Type {
	case TypeDocument, TypeVideo, TypePDF:
	case "":
		return fmt.Errorf("%w: document %q: type is required", ErrInvalidInput, d.ID)
	default:
		return fmt.Errorf("%w: document %q: unknown type %q", ErrInvalidInput, d.ID, d.Type)
	}
	return nil
}

// BasicText builds the cheap stage-1 representation: title, description and
// tags joined with single spaces.
func (d *SearchableDocument) BasicText() string {
	parts := make([]string, 0, 3)
	parts = append(parts, d.Title, d.Description)
	if len(d.Tags) > 0 {
		parts = append(parts, strings.Join(d.Tags, " "))
	}
	return strings.Join(parts, " ")
}

// RankedResult is a document that survived ranking, carrying its final score.
type RankedResult struct {
	SearchableDocument
	Similarity             float64 `json:"similarity"`
	ExtractedContentLength int     `json:"extractedContentLength"`
	HasExtractedContent    bool    `json:"hasExtractedContent"`
}
