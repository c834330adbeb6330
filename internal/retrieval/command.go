package retrieval

import (
	"strings"
)

// #region control-phrases
var controlImperatives = map[string]bool{
	"help": true, "stop": true, "start": true, "run": true,
	"clear": true, "reset": true, "quit": true, "exit": true,
	"undo": true, "redo": true, "save": true, "cancel": true,
}

// IsControlPhrase returns true if the input is a short imperative aimed at the
// app itself that should skip retrieval entirely.
func IsControlPhrase(input string) bool {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" || strings.Contains(lower, "?") {
		return false
	}
	words := strings.Fields(lower)
	return len(words) <= 3 && controlImperatives[strings.Trim(words[0], ".!,")]
}
// #endregion control-phrases
