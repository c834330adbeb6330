package classify

import (
	"strings"
	"unicode"
)

// #region stopwords
// stopwords contains common English words excluded from option matching.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"will": true, "would": true, "could": true, "should": true, "can": true,
	"not": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "so": true, "as": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "into": true, "of": true,
	"on": true, "to": true, "with": true, "about": true, "it": true,
	"its": true, "this": true, "that": true, "what": true, "which": true,
	"i": true, "me": true, "my": true, "your": true, "you": true,
	"we": true, "us": true, "one": true, "please": true, "pls": true,
	"just": true, "want": true, "like": true, "mean": true, "meant": true,
}

// ContentTokens splits text into unique lowercase non-stopword tokens.
func ContentTokens(text string) []string {
	words := strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// SharedTokens returns the count of tokens present in both slices.
func SharedTokens(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	count := 0
	for _, t := range b {
		if set[t] {
			count++
		}
	}
	return count
}

// #endregion
