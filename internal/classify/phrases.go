package classify

// #region phrase-sets

var hesitationPhrases = setOf(
	"let me think", "let me see", "not sure", "i'm not sure", "im not sure",
	"i am not sure", "i don't know", "i dont know", "idk", "dunno",
	"hold on", "wait", "one sec", "one second", "just a sec", "give me a sec",
	"give me a second", "thinking", "good question", "hmm let me think",
)

var repairPhrases = setOf(
	"no i meant", "i meant", "not that", "not that one", "not this one",
	"wrong one", "the wrong one", "that's wrong", "thats wrong",
	"that's not it", "thats not it", "that's not what i meant",
	"thats not what i meant", "no the other one", "the other one",
	"i said the other one", "wrong", "oops wrong one",
)

var exitPhrases = setOf(
	"cancel", "cancel that", "never mind", "nevermind", "nvm", "forget it",
	"forget about it", "stop", "exit", "quit", "start over", "nothing",
	"no thanks", "no thank you", "skip", "skip it", "leave it", "i'm done",
	"im done", "done",
)

// listRejectionPhrases reject the shown options without leaving the flow;
// the caller asks the user to refine. Trailing content disqualifies a match.
var listRejectionPhrases = setOf(
	"none of these", "none of those", "none of them", "none", "neither",
	"neither of these", "neither of those", "not these", "not those",
	"not any of these", "not any of those", "none of the above",
	"something else", "none of these options", "none of those options",
)

func setOf(phrases ...string) map[string]bool {
	m := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		m[p] = true
	}
	return m
}

func matchesPhrase(set map[string]bool, input string) bool {
	for _, c := range candidates(input) {
		if set[c] {
			return true
		}
	}
	return false
}

// #endregion

// #region predicates

// IsHesitationPhrase reports a stalling reply ("hmm", "let me think").
func IsHesitationPhrase(input string) bool {
	for _, c := range candidates(input) {
		if hesitationPhrases[c] || isHesitationToken(c) {
			return true
		}
	}
	return false
}

// IsRepairPhrase reports a correction of the previous pick ("not that one").
func IsRepairPhrase(input string) bool {
	return matchesPhrase(repairPhrases, input)
}

// IsExitPhrase reports a request to leave the current flow. "none of these"
// is a list rejection, not an exit.
func IsExitPhrase(input string) bool {
	return matchesPhrase(exitPhrases, input)
}

// IsListRejectionPhrase reports a bare rejection of the shown list.
// "none of those, open dashboard" is a topic switch and does not match.
func IsListRejectionPhrase(input string) bool {
	return matchesPhrase(listRejectionPhrases, input)
}

// #endregion
