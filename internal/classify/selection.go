package classify

// #region imports
import (
	"strconv"
	"strings"
)

// #endregion

// #region mode

// Mode selects how tolerant IsSelectionOnly is. Call sites pick the mode.
type Mode int

const (
	// ModeStrict accepts an ordinal or number and nothing else.
	ModeStrict Mode = iota
	// ModeEmbedded also accepts a leading verb and exact option labels.
	ModeEmbedded
)

// Selection is the result of IsSelectionOnly. Index is zero-based.
type Selection struct {
	IsSelection bool
	Index       int
}

// #endregion

// #region vocab

var ordinalWords = map[string]int{
	"first": 0, "second": 1, "third": 2, "fourth": 3, "fifth": 4,
	"sixth": 5, "seventh": 6, "eighth": 7, "ninth": 8, "tenth": 9,
	"1st": 0, "2nd": 1, "3rd": 2, "4th": 3, "5th": 4,
	"6th": 5, "7th": 6, "8th": 7, "9th": 8, "10th": 9,
}

var numberWords = map[string]int{
	"one": 0, "two": 1, "three": 2, "four": 3, "five": 4,
	"six": 5, "seven": 6, "eight": 7, "nine": 8, "ten": 9,
}

// selectionVerbs is ordered longest first so multi-word verbs win.
var selectionVerbs = []string{
	"let's go with", "lets go with", "i'll take", "ill take", "i'll go with",
	"i want", "give me", "go with", "show me", "open", "select", "pick",
	"choose", "show", "take", "use",
}

var leadingFrames = map[string]bool{"the": true, "option": true, "item": true, "number": true, "no.": true}
var trailingFrames = map[string]bool{"one": true, "option": true, "item": true, "choice": true}

// #endregion

// #region is-selection-only

// IsSelectionOnly resolves an ordinal reply ("second", "the 2nd one", "3")
// to a zero-based index below optionCount.
func IsSelectionOnly(input string, optionCount int, optionLabels []string, mode Mode) Selection {
	if optionCount <= 0 {
		return Selection{}
	}
	s := stripDecorations(input)
	if mode == ModeEmbedded {
		if idx, ok := matchLabel(s, optionLabels); ok && idx < optionCount {
			return Selection{IsSelection: true, Index: idx}
		}
		s, _ = stripLeadingVerb(s, selectionVerbs)
	}
	idx, ok := parseOrdinal(s, optionCount)
	if !ok || idx < 0 || idx >= optionCount {
		return Selection{}
	}
	return Selection{IsSelection: true, Index: idx}
}

// isOrdinalExpression reports whether s is only an ordinal reference,
// independent of any option count.
func isOrdinalExpression(s string) bool {
	_, ok := parseOrdinal(s, 100)
	return ok
}

// parseOrdinal reads an ordinal or number reference. Pronoun forms such as
// "one" or "the one" point at nothing in particular and are rejected.
func parseOrdinal(s string, count int) (int, bool) {
	if pronounTargets[s] {
		return -1, false
	}
	words := strings.Fields(s)
	for len(words) > 1 && leadingFrames[words[0]] {
		words = words[1:]
	}
	for len(words) > 1 && trailingFrames[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	if len(words) != 1 {
		return -1, false
	}
	w := strings.TrimPrefix(words[0], "#")
	if w == "last" {
		return count - 1, true
	}
	if v, ok := ordinalWords[w]; ok {
		return v, true
	}
	if v, ok := numberWords[w]; ok {
		return v, true
	}
	if n, err := strconv.Atoi(w); err == nil && n >= 1 {
		return n - 1, true
	}
	return -1, false
}

func matchLabel(s string, labels []string) (int, bool) {
	s = strings.TrimPrefix(s, "the ")
	found := -1
	for i, l := range labels {
		if Normalize(l) != s {
			continue
		}
		if found >= 0 {
			return -1, false
		}
		found = i
	}
	return found, found >= 0
}

func stripLeadingVerb(s string, verbs []string) (string, string) {
	for _, v := range verbs {
		if s == v {
			return "", v
		}
		if strings.HasPrefix(s, v+" ") {
			return strings.TrimSpace(strings.TrimPrefix(s, v+" ")), v
		}
	}
	return s, ""
}

// #endregion

// #region looks-like-selection

// selectionProbeCount bounds ordinal parsing when no list length is known.
const selectionProbeCount = 10

// LooksLikeSelection reports whether input reads as an ordinal pick without
// knowing the list it targets.
func LooksLikeSelection(input string) bool {
	s, _ := stripLeadingVerb(stripDecorations(input), selectionVerbs)
	_, ok := parseOrdinal(s, selectionProbeCount)
	return ok
}

// #endregion
