package resolver

import (
	"time"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region intents

// IntentKind names a structured intent produced upstream.
type IntentKind string

const (
	IntentNavigateWorkspace       IntentKind = "navigate_workspace"
	IntentOpenPanel               IntentKind = "open_panel"
	IntentSelectOption            IntentKind = "select_option"
	IntentExplainLastAction       IntentKind = "explain_last_action"
	IntentSummarizeRecentActivity IntentKind = "summarize_recent_activity"
	IntentAnswerFromContext       IntentKind = "answer_from_context"
	IntentGeneralAnswer           IntentKind = "general_answer"
	IntentLastAction              IntentKind = "last_action"
	IntentSessionStats            IntentKind = "session_stats"
	IntentUnsupported             IntentKind = "unsupported"
)

// Intent is a parsed request. Answer carries free text for the answer kinds.
type Intent struct {
	Kind        IntentKind   `json:"kind"`
	Target      trace.Target `json:"target"`
	OptionIndex int          `json:"option_index"`
	Answer      string       `json:"answer,omitempty"`
}

// #endregion

// #region resolutions

// Action is what the caller should do with a resolution.
type Action string

const (
	ActionInform            Action = "inform"
	ActionAnswerFromContext Action = "answer_from_context"
	ActionGeneralAnswer     Action = "general_answer"
	ActionError             Action = "error"
	ActionNavigateWorkspace Action = "navigate_workspace"
	ActionOpenPanel         Action = "open_panel"
	ActionSelectOption      Action = "select_option"
)

// Resolution is the resolver's answer to one intent.
type Resolution struct {
	Success bool          `json:"success"`
	Action  Action        `json:"action"`
	Message string        `json:"message"`
	Target  *trace.Target `json:"target,omitempty"`
}

// #endregion

// #region context

// CatalogEntry is a navigable workspace or panel.
type CatalogEntry struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Context is the read-only view the resolver works from.
type Context struct {
	CurrentWorkspace string
	LastAction       *trace.LastAction
	History          []trace.LastAction // newest first
	Trace            []trace.Entry      // newest first
	Options          []clarify.Option
	Workspaces       []CatalogEntry
	Panels           []CatalogEntry
	NowMs            int64
}

// #endregion

// #region config

// Config controls semantic answering.
type Config struct {
	SemanticAnswers   bool          `yaml:"semantic_answers"`
	CausalMatchWindow time.Duration `yaml:"causal_match_window"`
	MaxSummaryItems   int           `yaml:"max_summary_items"`
}

// DefaultConfig enables semantic answers with stock windows.
func DefaultConfig() Config {
	return Config{
		SemanticAnswers:   true,
		CausalMatchWindow: 2 * time.Second,
		MaxSummaryItems:   3,
	}
}

// #endregion
