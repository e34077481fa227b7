package query

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips question phrasing and stop words",
			input: "How do I increase revenue for my mobile app",
			want:  "increase revenue mobile app",
		},
		{
			name:  "already normalized query is unchanged",
			input: "revenue monetization",
			want:  "revenue monetization",
		},
		{
			name:  "lowercases",
			input: "Revenue Monetization",
			want:  "revenue monetization",
		},
		{
			name:  "drops short tokens",
			input: "go vs js frameworks",
			want:  "frameworks",
		},
		{
			name:  "drops punctuated tokens instead of splitting them",
			input: "compare user-retention strategies",
			want:  "compare strategies",
		},
		{
			name:  "trailing punctuation drops the token",
			input: "how to increase revenue today?",
			want:  "increase revenue",
		},
		{
			name:  "phrase words survive inside longer words",
			input: "finding developers",
			want:  "finding developers",
		},
		{
			name:  "phrase removal stops at word boundaries",
			input: "describe findata platform",
			want:  "findata platform",
		},
		{
			name:  "removes lead-in phrases",
			input: "tell me about push notifications",
			want:  "push notifications",
		},
		{
			name:  "all stop words falls back to original",
			input: "the a an",
			want:  "the a an",
		},
		{
			name:  "only short tokens falls back to original",
			input: "is it ok",
			want:  "is it ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("How do I increase revenue for my mobile app?")
	twice := Normalize(once)
	if once != twice {
		t.Errorf("normalization not idempotent: %q then %q", once, twice)
	}
}

func TestHasKeywords(t *testing.T) {
	if !HasKeywords("revenue monetization") {
		t.Error("expected keywords for real query")
	}
	if HasKeywords("the a an") {
		t.Error("expected no keywords for stop-word-only query")
	}
	if HasKeywords("") {
		t.Error("expected no keywords for empty query")
	}
}
