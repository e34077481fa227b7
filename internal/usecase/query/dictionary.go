package query

// stopWords are filler tokens dropped during normalization. Matching is
// case-insensitive because normalization lowercases first.
var stopWords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "how": {}, "to": {}, "the": {},
	"a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "with": {}, "by": {}, "from": {},
	"about": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "up": {}, "down": {},
	"out": {}, "off": {}, "over": {}, "under": {}, "again": {},
	"further": {}, "then": {}, "once": {}, "here": {}, "there": {},
	"when": {}, "where": {}, "why": {}, "all": {}, "any": {},
	"both": {}, "each": {}, "few": {}, "more": {}, "most": {},
	"other": {}, "some": {}, "such": {}, "no": {}, "nor": {},
	"not": {}, "only": {}, "own": {}, "same": {}, "so": {},
	"than": {}, "too": {}, "very": {}, "can": {}, "will": {},
	"just": {}, "should": {}, "now": {},
}

// commonPhrases are conversational lead-ins stripped before tokenizing.
// Each is matched as a whole phrase on word boundaries, so ordering and
// prefix overlap ("how do" vs "how does") have no effect.
var commonPhrases = []string{
	"tell me about",
	"search for",
	"look for",
	"show me",
	"give me",
	"what does",
	"how does",
	"what is",
	"what are",
	"how to",
	"how do",
	"how can",
	"explain",
	"describe",
	"find",
}
