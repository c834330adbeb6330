package orchestrator

// #region imports
import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/classify"
)

// #endregion

// #region input-shape

// InputShape is every classifier verdict for one input, computed once per
// turn and shared by the tiers.
type InputShape struct {
	Noise              bool
	Hesitation         bool
	Repair             bool
	Exit               bool
	ListRejection      bool
	Command            bool
	LooksLikeSelection bool
	Selection          classify.Selection // against options, embedded mode
	Semantic           classify.SemanticKind
	SemanticQuestion   bool
	ContentTokens      int
}

// ClassifyInput runs the classifiers against input. options is the list the
// input may be answering, possibly empty.
func ClassifyInput(input string, options []clarify.Option) InputShape {
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
	}
	return InputShape{
		Noise:              classify.IsNoise(input),
		Hesitation:         classify.IsHesitationPhrase(input),
		Repair:             classify.IsRepairPhrase(input),
		Exit:               classify.IsExitPhrase(input),
		ListRejection:      classify.IsListRejectionPhrase(input),
		Command:            classify.IsExplicitCommand(input),
		LooksLikeSelection: classify.LooksLikeSelection(input),
		Selection:          classify.IsSelectionOnly(input, len(options), labels, classify.ModeEmbedded),
		Semantic:           classify.ClassifySemanticQuestion(input),
		SemanticQuestion:   classify.IsSemanticQuestionInput(input, len(options), labels),
		ContentTokens:      len(classify.ContentTokens(input)),
	}
}

// Fields renders the shape for structured logs, omitting false flags.
func (s InputShape) Fields() []zap.Field {
	fields := []zap.Field{zap.Int("content_tokens", s.ContentTokens)}
	flags := map[string]bool{
		"noise":          s.Noise,
		"hesitation":     s.Hesitation,
		"repair":         s.Repair,
		"exit":           s.Exit,
		"list_rejection": s.ListRejection,
		"command":        s.Command,
		"selection_like": s.LooksLikeSelection,
		"semantic":       s.SemanticQuestion,
	}
	for k, v := range flags {
		if v {
			fields = append(fields, zap.Bool(k, true))
		}
	}
	if s.Selection.IsSelection {
		fields = append(fields, zap.Int("selection_index", s.Selection.Index))
	}
	return fields
}

// #endregion
