package kbsearch

import (
	"context"
	"math"
	"testing"
)

// fakeEmbedder maps exact texts to canned unit vectors; unknown texts get a
// vector orthogonal to the query vector.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if vec, ok := f.vectors[text]; ok {
		return EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
	}
	return EmbeddingResult{Embedding: []float32{0, 1}, TotalTokens: 1}, nil
}

func unitVec(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestNew_RequiresProvider(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without an embedding provider")
	}
}

func TestClient_Search(t *testing.T) {
	docA := Document{
		ID: "mon", Title: "App Monetization Strategies",
		Description: "revenue growth tactics",
		Tags:        []string{"revenue", "monetization"},
		Type:        TypeDocument,
	}
	docB := Document{
		ID: "cal", Title: "Company Holiday Calendar",
		Description: "list of holidays",
		Tags:        []string{"hr"},
		Type:        TypeDocument,
	}

	basicA := "App Monetization Strategies revenue growth tactics revenue monetization"
	basicB := "Company Holiday Calendar list of holidays hr"
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"increase app revenue": {1, 0},
		basicA:                 unitVec(0.8),
		basicB:                 unitVec(0.2),
	}}

	client, err := New(WithEmbedder(emb))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	resp, err := client.Search(context.Background(), "how to increase app revenue",
		[]Document{docB, docA}, 0.5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if resp.CleanedQuery != "increase app revenue" {
		t.Errorf("CleanedQuery = %q", resp.CleanedQuery)
	}
	if resp.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2", resp.TotalProcessed)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "mon" {
		t.Fatalf("expected only the monetization doc, got %+v", resp.Results)
	}
	if resp.Results[0].Similarity < 0.5 {
		t.Errorf("Similarity = %f, want >= threshold", resp.Results[0].Similarity)
	}
}

func TestClient_SearchUsesDefaultThreshold(t *testing.T) {
	d := Document{ID: "a", Title: "Docs", Type: TypeDocument}

	emb := &fakeEmbedder{vectors: map[string][]float32{
		"docs":        {1, 0},
		d.Title + " ": unitVec(0.4), // BasicText has an empty description slot
	}}

	client, err := New(WithEmbedder(emb), WithDefaultThreshold(0.35))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	resp, err := client.Search(context.Background(), "docs", []Document{d}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected result at 0.4 with default threshold 0.35, got %d", len(resp.Results))
	}
}

func TestClient_SearchRejectsInvalidDocument(t *testing.T) {
	client, err := New(WithEmbedder(&fakeEmbedder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	_, err = client.Search(context.Background(), "docs",
		[]Document{{ID: "", Title: "T", Type: TypeDocument}}, 0.5)
	if err == nil {
		t.Fatal("expected validation error for missing id")
	}
}

func TestClient_Ping(t *testing.T) {
	client, err := New(WithEmbedder(&fakeEmbedder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
