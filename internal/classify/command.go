package classify

// #region imports
import (
	"strings"
)

// #endregion

// #region command-types

// Command is an explicit verb + target parsed from chat input.
type Command struct {
	Verb   string
	Target string
}

// commandVerbs is ordered longest first.
var commandVerbs = []string{
	"navigate to", "take me to", "switch to", "search for", "bring up",
	"go to", "open", "show", "create", "new", "add", "delete", "remove",
	"rename", "close", "find", "list",
}

var pronounTargets = map[string]bool{
	"it": true, "that": true, "this": true, "them": true, "those": true,
	"these": true, "that one": true, "this one": true, "one": true,
	"the one": true, "more": true,
}

var questionWords = []string{"what ", "why ", "how ", "when ", "where ", "which "}

// #endregion

// #region command-detection

// ParseCommand splits an explicit command into verb and target. The target
// must be a noun phrase: not empty, not a bare pronoun, not an ordinal and
// not a question clause.
func ParseCommand(input string) (Command, bool) {
	s := stripDecorations(input)
	if s == "" || strings.Contains(s, "?") {
		return Command{}, false
	}
	rest, verb := stripLeadingVerb(s, commandVerbs)
	if verb == "" {
		return Command{}, false
	}
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "me "))
	if rest == "" || pronounTargets[rest] || isOrdinalExpression(rest) {
		return Command{}, false
	}
	for _, q := range questionWords {
		if strings.HasPrefix(rest, q) {
			return Command{}, false
		}
	}
	return Command{Verb: verb, Target: rest}, true
}

// IsExplicitCommand returns true if the input names an action verb and a
// target that is not purely an ordinal. Such input escapes latch and
// clarification capture.
func IsExplicitCommand(input string) bool {
	_, ok := ParseCommand(input)
	return ok
}

// #endregion
