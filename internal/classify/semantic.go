package classify

// #region imports
import (
	"strings"
)

// #endregion

// #region semantic-kind

// SemanticKind names the meta-question families answered from the trace.
type SemanticKind string

const (
	SemanticNone                    SemanticKind = ""
	SemanticExplainLastAction       SemanticKind = "explain_last_action"
	SemanticSummarizeRecentActivity SemanticKind = "summarize_recent_activity"
)

// #endregion

// #region patterns

var explainPatterns = []string{
	"why did you", "why did that", "why did this", "why did it", "why was that",
	"why is that open", "why is this open", "why that", "why this",
	"how did i get here", "what did you just do", "what did you do",
	"what just happened", "explain what you did", "explain that",
	"explain why", "what was that", "what did i just do",
	"what was my last action", "what did i just open",
	"what you just did", "what you did", "why you did that", "why you did",
	"what i just did", "what i just opened",
}

var summarizePatterns = []string{
	"what have i done", "what have i been doing", "what did i do",
	"what have i been up to", "summarize my activity", "summarize what i did",
	"summarize recent activity", "summarize my recent activity", "recap",
	"what did i work on", "what have i opened", "my recent activity",
	"what i did", "what i've done", "what ive done", "what i have done",
	"what i've been doing", "what ive been doing", "what i have been doing",
	"what i worked on", "what i've opened",
}

var bareExplain = setOf("why", "how come", "why though")

// #endregion

// #region classify-semantic

// ClassifySemanticQuestion maps why/what-did-I-do input, asked or phrased as
// a request ("tell me what I did"), to a meta-question kind without checking
// for competing interpretations.
func ClassifySemanticQuestion(input string) SemanticKind {
	s := strings.TrimRight(stripDecorations(input), "?")
	if s == "" {
		return SemanticNone
	}
	if bareExplain[s] {
		return SemanticExplainLastAction
	}
	for _, p := range explainPatterns {
		if containsPhrase(s, p) {
			return SemanticExplainLastAction
		}
	}
	for _, p := range summarizePatterns {
		if containsPhrase(s, p) {
			return SemanticSummarizeRecentActivity
		}
	}
	return SemanticNone
}

// IsSemanticQuestionInput is true for meta-questions about recent activity,
// false whenever the input reads as a command or, with options showing, as a
// selection.
func IsSemanticQuestionInput(input string, optionCount int, optionLabels []string) bool {
	if IsExplicitCommand(input) {
		return false
	}
	if optionCount > 0 && IsSelectionOnly(input, optionCount, optionLabels, ModeEmbedded).IsSelection {
		return false
	}
	return ClassifySemanticQuestion(input) != SemanticNone
}

// DetectMetaQuestion is the narrow local detector used to catch free-text
// answers that were really causal or summary questions. It only fires on
// question-shaped input.
func DetectMetaQuestion(input string) SemanticKind {
	s := trimPunct(input)
	n := Normalize(input)
	question := strings.HasSuffix(n, "?")
	for _, q := range []string{"why", "what", "how", "explain", "summarize", "recap"} {
		if s == q || strings.HasPrefix(s, q+" ") {
			question = true
		}
	}
	if !question || IsExplicitCommand(input) {
		return SemanticNone
	}
	return ClassifySemanticQuestion(input)
}

func containsPhrase(s, phrase string) bool {
	if s == phrase || strings.HasPrefix(s, phrase+" ") || strings.HasSuffix(s, " "+phrase) {
		return true
	}
	return strings.Contains(s, " "+phrase+" ")
}

// #endregion
