package classify

// #region imports
import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// #endregion

// #region normalize

// Normalize folds compatibility forms, lower-cases, trims and collapses
// internal whitespace. Every predicate in this package runs on its output.
func Normalize(input string) string {
	s := norm.NFKC.String(input)
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}

// #endregion

// #region decorations

var politenessSuffixes = []string{"thank you", "please", "thanks", "pls", "plz", "thx", "ty"}

const trailingPunct = " .,!?;:…"

// trimPunct normalizes and drops trailing punctuation only.
func trimPunct(input string) string {
	return strings.TrimRight(Normalize(input), trailingPunct)
}

// stripDecorations normalizes and removes trailing punctuation, politeness
// suffixes and a leading "please". An input made only of a politeness word is
// returned unchanged.
func stripDecorations(input string) string {
	s := trimPunct(input)
	for {
		before := s
		for _, suf := range politenessSuffixes {
			if strings.HasSuffix(s, " "+suf) {
				s = strings.TrimSuffix(s, " "+suf)
			}
		}
		if strings.HasPrefix(s, "please ") {
			s = strings.TrimPrefix(s, "please ")
		}
		s = strings.TrimRight(s, trailingPunct)
		if s == before {
			return s
		}
	}
}

// candidates returns the punctuation-trimmed and fully stripped forms of the
// input. Phrase sets match against either.
func candidates(input string) []string {
	a := trimPunct(input)
	b := stripDecorations(input)
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

// #endregion
