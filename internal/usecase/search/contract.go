package search

import (
	"context"

	"github.com/lexora/kbsearch/internal/domain"
)

// QueryEmbedder vectorizes the search query. Wired with retry in the
// composition root: a failed query embedding sinks the whole search, so it
// is worth a few attempts.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// DocumentEmbedder vectorizes document texts. Per-document failures degrade
// to empty vectors inside BatchEmbed, so no retry layer here.
type DocumentEmbedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// ContentExtractor pulls readable text from a document URL. Extraction
// never fails: any problem yields "".
type ContentExtractor interface {
	Extract(ctx context.Context, url string, docType domain.DocumentType) string
}
