package corpus

import "strings"

// stopwords are dropped from queries before scoring: articles, pronouns,
// conjunctions, auxiliaries, and debate-filler words that would otherwise
// match almost every chunk.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"had": true, "will": true, "would": true, "could": true, "should": true,
	"and": true, "or": true, "but": true, "if": true, "then": true,
	"than": true, "so": true, "as": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "into": true, "of": true,
	"on": true, "to": true, "with": true, "about": true, "it": true,
	"its": true, "this": true, "that": true, "what": true, "which": true,
	"who": true, "how": true, "i": true, "my": true, "me": true,
	"you": true, "your": true, "we": true, "our": true, "they": true,
	"their": true, "he": true, "she": true, "not": true, "no": true,
	"think": true, "opinion": true, "better": true, "vs": true,
	"versus": true, "debate": true, "argue": true,
}

// queryTokens lowercases and whitespace-splits the query, dropping stop
// words and duplicates while preserving first-seen order.
func queryTokens(query string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}
