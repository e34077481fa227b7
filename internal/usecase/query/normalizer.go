// Package query normalizes raw user queries into keyword strings suitable
// for embedding. Conversational phrasing and stop words are removed so the
// embedding captures the topical content rather than the question form.
package query

import (
	"regexp"
	"strings"
)

// phrasePatterns match lead-in phrases on word boundaries only, so "find"
// never eats into "finding".
var phrasePatterns = compilePhrases(commonPhrases)

// alnumToken accepts purely alphanumeric tokens; anything carrying
// punctuation is dropped rather than split.
var alnumToken = regexp.MustCompile(`^[a-z0-9]+$`)

func compilePhrases(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
	}
	return patterns
}

// Normalize lowercases the query, strips conversational phrases and stop
// words, and returns the remaining keywords joined by single spaces. If
// nothing survives filtering, the original query is returned unchanged so
// the search can still proceed.
func Normalize(raw string) string {
	kw := keywords(raw)
	if len(kw) == 0 {
		return raw
	}
	return strings.Join(kw, " ")
}

// HasKeywords reports whether any keyword survives normalization. When it
// returns false, Normalize falls back to the original query.
func HasKeywords(raw string) bool {
	return len(keywords(raw)) > 0
}

func keywords(raw string) []string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))

	for _, pattern := range phrasePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}

	var kw []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if !alnumToken.MatchString(token) {
			continue
		}
		kw = append(kw, token)
	}
	return kw
}
