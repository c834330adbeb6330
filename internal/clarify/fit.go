package clarify

// #region imports
import (
	"fmt"
	"sort"
	"strings"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/classify"
)

// #endregion

// #region types

// FitKind classifies an off-menu reply to a disambiguation list.
type FitKind string

const (
	FitSelect     FitKind = "select"
	FitAskClarify FitKind = "ask_clarify"
	FitSoftReject FitKind = "soft_reject"
	FitNewTopic   FitKind = "new_topic"
)

// Thresholds gate auto-selection. Execute is the score needed to act without
// asking; below Confirm the system never proposes a single option.
type Thresholds struct {
	Execute float64 `yaml:"execute"`
	Confirm float64 `yaml:"confirm"`
	Margin  float64 `yaml:"margin"`
}

// DefaultThresholds returns the stock execute/confirm thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Execute: 0.75, Confirm: 0.55, Margin: 0.15}
}

// FitContext carries what the classifier knows about the list beyond its
// options. OriginalIntent only shapes prompts; it never affects the kind.
type FitContext struct {
	OriginalIntent string
}

// Fit is the classification result. Index is -1 unless Kind is FitSelect.
type Fit struct {
	Kind       FitKind
	Index      int
	Score      float64
	Candidates []int
	Prompt     string
}

// #endregion

// newTopicMinTokens is the content-token count at which a reply that touches
// no option is read as a topic switch.
const newTopicMinTokens = 3

type scored struct {
	index int
	score float64
}

// #region classify

// ClassifyResponseFit decides what to do with a reply that may or may not
// pick from options.
func ClassifyResponseFit(input string, options []Option, th Thresholds, fc FitContext) Fit {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
	}

	if sel := classify.IsSelectionOnly(input, len(options), labels, classify.ModeEmbedded); sel.IsSelection {
		return Fit{Kind: FitSelect, Index: sel.Index, Score: 1, Candidates: []int{sel.Index}}
	}

	tokens := classify.ContentTokens(input)
	if len(tokens) == 0 {
		return Fit{Kind: FitAskClarify, Index: -1, Prompt: EscalationPrompt(1, options)}
	}

	optTokens := make([][]string, len(options))
	for i, o := range options {
		optTokens[i] = classify.ContentTokens(o.Label)
	}

	var cands []scored
	for i := range options {
		if s := scoreOption(tokens, i, optTokens); s > 0 {
			cands = append(cands, scored{index: i, score: s})
		}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].score > cands[b].score })

	if len(cands) == 0 {
		if len(tokens) >= newTopicMinTokens {
			return Fit{Kind: FitNewTopic, Index: -1}
		}
		prompt := hintPrompt(tokens, nil)
		if intent := strings.TrimSpace(fc.OriginalIntent); intent != "" {
			prompt = fmt.Sprintf("I'm not sure what %q refers to. Which option did you mean for %q?", strings.Join(tokens, " "), intent)
		}
		return Fit{Kind: FitAskClarify, Index: -1, Prompt: prompt}
	}

	top := cands[0]
	margin := top.score
	if len(cands) > 1 {
		margin = top.score - cands[1].score
	}
	indexes := make([]int, len(cands))
	for i, c := range cands {
		indexes[i] = c.index
	}

	switch {
	case top.score >= th.Execute && margin >= th.Margin:
		return Fit{Kind: FitSelect, Index: top.index, Score: top.score, Candidates: indexes[:1]}
	case top.score >= th.Confirm && margin >= th.Margin:
		return Fit{Kind: FitAskClarify, Index: -1, Score: top.score, Candidates: indexes[:1],
			Prompt: fmt.Sprintf("Did you mean %q?", options[top.index].Label)}
	case top.score >= th.Confirm:
		return Fit{Kind: FitAskClarify, Index: -1, Score: top.score, Candidates: indexes,
			Prompt: hintPrompt(tokens, pick(options, indexes, 2))}
	case len(cands) >= 2:
		named := pick(options, indexes, 2)
		return Fit{Kind: FitSoftReject, Index: -1, Score: top.score, Candidates: indexes,
			Prompt: fmt.Sprintf("I'm not sure that matches. The closest were %s.", joinQuoted(named))}
	default:
		return Fit{Kind: FitAskClarify, Index: -1, Score: top.score, Candidates: indexes,
			Prompt: hintPrompt(tokens, pick(options, indexes, 1))}
	}
}

// scoreOption blends how much of the reply hits the option with how much of
// the option is covered, plus a bonus when the hit tokens appear in no other
// option.
func scoreOption(tokens []string, i int, optTokens [][]string) float64 {
	opt := optTokens[i]
	if len(opt) == 0 {
		return 0
	}
	shared := 0.0
	unique := true
	for _, t := range tokens {
		w := tokenWeight(t, opt)
		if w == 0 {
			continue
		}
		shared += w
		for j, other := range optTokens {
			if j != i && tokenWeight(t, other) > 0 {
				unique = false
			}
		}
	}
	if shared == 0 {
		return 0
	}
	precision := shared / float64(len(tokens))
	coverage := shared / float64(len(opt))
	if coverage > 1 {
		coverage = 1
	}
	score := 0.5*precision + 0.5*coverage
	if unique {
		score += 0.25
	}
	if score > 1 {
		score = 1
	}
	return score
}

// tokenWeight is 1 for an exact token hit, 0.5 for a prefix of 3+ letters.
func tokenWeight(t string, opt []string) float64 {
	best := 0.0
	for _, o := range opt {
		if o == t {
			return 1
		}
		if len(t) >= 3 && strings.HasPrefix(o, t) {
			best = 0.5
		}
	}
	return best
}

// #endregion

// #region prompts

func pick(options []Option, indexes []int, n int) []string {
	var out []string
	for _, i := range indexes {
		if len(out) == n {
			break
		}
		out = append(out, options[i].Label)
	}
	return out
}

func joinQuoted(labels []string) string {
	return strings.Join(quoteAll(labels), " and ")
}

func hintPrompt(tokens []string, named []string) string {
	hint := strings.Join(tokens, " ")
	if len(named) == 0 {
		return fmt.Sprintf("I'm not sure what %q refers to. Which option did you mean?", hint)
	}
	if len(named) == 1 {
		return fmt.Sprintf("When you say %q, do you mean %q?", hint, named[0])
	}
	return fmt.Sprintf("When you say %q, which one: %s?", hint, strings.Join(quoteAll(named), " or "))
}

func quoteAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = fmt.Sprintf("%q", l)
	}
	return out
}

// EscalationPrompt is the re-prompt for the attempt-th unresolved reply.
func EscalationPrompt(attempt int, options []Option) string {
	var b strings.Builder
	switch {
	case attempt <= 1:
		b.WriteString("Sorry, I didn't catch that. Which one did you mean?")
	case attempt == 2:
		b.WriteString(`Which of these are you looking for? You can also say "none of these" or "cancel".`)
	default:
		b.WriteString(`Please answer in 3-6 words or pick a number. Say "none of these" or "cancel" to move on.`)
	}
	for i, o := range options {
		fmt.Fprintf(&b, "\n%d. %s", i+1, o.Label)
	}
	return b.String()
}

// #endregion
