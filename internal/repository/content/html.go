package content

import (
	"regexp"
	"strings"
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	googleDocIDRe = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)
)

// stripHTML reduces an HTML page to its visible text: script and style blocks
// go first (their contents are never visible), then the remaining tags, then
// whitespace runs collapse to single spaces.
func stripHTML(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = styleRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// googleDocID pulls the document id out of a docs.google.com URL path.
// Returns "" when the URL does not carry a /d/<id> segment.
func googleDocID(url string) string {
	m := googleDocIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// truncate cuts s to at most limit bytes. Limits here are generous enough
// that cutting mid-rune costs nothing for ranking purposes.
func truncate(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
