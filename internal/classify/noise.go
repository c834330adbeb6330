package classify

// #region imports
import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// #endregion

// #region whitelists

// shortWhitelist holds short tokens that look like noise but carry meaning.
var shortWhitelist = map[string]bool{
	"rgb": true, "css": true, "api": true, "pdf": true, "url": true,
	"svg": true, "csv": true, "png": true, "jpg": true, "gif": true,
	"xml": true, "sql": true, "html": true, "json": true, "ok": true,
	"no": true,
}

var hesitationToken = regexp.MustCompile(`^(h+m+|u+m+|u+h+|e+r+m*|a+h+|m+h+m+)$`)

func isHesitationToken(s string) bool {
	return hesitationToken.MatchString(s)
}

// #endregion

// #region keyboard

var keyboardRows = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm"}

type keyPos struct{ row, col int }

var keyPositions = func() map[rune]keyPos {
	m := make(map[rune]keyPos)
	for r, row := range keyboardRows {
		for c, ch := range row {
			m[ch] = keyPos{r, c}
		}
	}
	return m
}()

// rowRuns holds every 5-key window of each keyboard row, both directions.
var rowRuns = func() []string {
	var runs []string
	for _, row := range keyboardRows {
		for i := 0; i+5 <= len(row); i++ {
			w := row[i : i+5]
			runs = append(runs, w, reverse(w))
		}
	}
	return runs
}()

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// keysAdjacent reports whether two letters touch on a QWERTY layout. Each
// lower row is offset right, so row r reaches columns c and c+1 above it.
func keysAdjacent(a, b rune) bool {
	pa, okA := keyPositions[a]
	pb, okB := keyPositions[b]
	if !okA || !okB {
		return false
	}
	switch pb.row - pa.row {
	case 0:
		return pb.col-pa.col == 1 || pa.col-pb.col == 1
	case -1:
		return pb.col == pa.col || pb.col == pa.col+1
	case 1:
		return pb.col == pa.col || pb.col == pa.col-1
	}
	return false
}

func isConsonant(r rune) bool {
	return unicode.IsLetter(r) && !strings.ContainsRune("aeiouy", r)
}

// hasKeyboardMash detects a row run ("asdfg") or five consecutive consonants
// that are pairwise keyboard-adjacent ("sdfgh").
func hasKeyboardMash(tok string) bool {
	for _, run := range rowRuns {
		if strings.Contains(tok, run) {
			return true
		}
	}
	streak := 0
	var prev rune
	for _, r := range tok {
		if isConsonant(r) && (streak == 0 || keysAdjacent(prev, r)) {
			streak++
		} else if isConsonant(r) {
			streak = 1
		} else {
			streak = 0
		}
		if streak >= 5 {
			return true
		}
		prev = r
	}
	return false
}

func hasRepeatedRun(tok string, n int) bool {
	count := 0
	var prev rune
	for i, r := range tok {
		if i > 0 && r == prev {
			count++
		} else {
			count = 1
		}
		if count >= n {
			return true
		}
		prev = r
	}
	return false
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// #endregion

// #region is-noise

// IsNoise reports whether the input carries no usable signal: empty, symbols
// or digits only, emoji only, one or two characters, keyboard mashing or long
// repeated-character runs. Whitelisted abbreviations and hesitation tokens are
// never noise.
func IsNoise(input string) bool {
	s := stripDecorations(input)
	if s == "" {
		return true
	}
	if shortWhitelist[s] || isHesitationToken(s) {
		return false
	}
	if !hasLetter(s) {
		return true
	}
	if utf8.RuneCountInString(s) <= 2 {
		return true
	}
	for _, tok := range strings.Fields(s) {
		if shortWhitelist[tok] || isHesitationToken(tok) {
			return false
		}
		if !hasRepeatedRun(tok, 4) && !hasKeyboardMash(tok) {
			return false
		}
	}
	return true
}

// #endregion
