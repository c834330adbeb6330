package orchestrator

// #region imports
import (
	"context"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #endregion

// #region tier

// Tier identifies a dispatcher stage. Lower runs first.
type Tier int

const (
	TierNone Tier = iota
	TierExplicitCommand
	TierFocusLatch
	TierStaleClarification
	TierSemanticQuestion
	TierRetrieval
	TierLLMFallback
)

var tierLabels = map[Tier]string{
	TierNone:               "none",
	TierExplicitCommand:    "explicit_command",
	TierFocusLatch:         "focus_latch",
	TierStaleClarification: "stale_clarification",
	TierSemanticQuestion:   "semantic_question",
	TierRetrieval:          "retrieval",
	TierLLMFallback:        "llm_fallback",
}

// String returns the tier label.
func (t Tier) String() string {
	if l, ok := tierLabels[t]; ok {
		return l
	}
	return "unknown"
}

// #endregion

// #region features

// Features are the arbitration switches, threaded in explicitly.
type Features struct {
	FocusLatch      bool `yaml:"focus_latch"`
	SemanticAnswers bool `yaml:"semantic_answers"`
	LLMFallback     bool `yaml:"llm_fallback"`
}

// #endregion

// #region grounding-action

// Action types the dispatcher can ground a turn to.
const (
	ActionOpenPanel         = "open_panel"
	ActionOpenWidget        = "open_widget"
	ActionNavigateWorkspace = "navigate_workspace"
	ActionSelectOption      = "select_option"
	ActionSelectWidgetItem  = "select_widget_item"
	ActionOpenDocument      = "open_document"
)

// GroundingAction is the single concrete action a turn resolved to.
// WidgetID is set when the action opens or targets a widget.
type GroundingAction struct {
	Type      string       `json:"type" yaml:"type"`
	Target    trace.Target `json:"target" yaml:"target"`
	WidgetID  string       `json:"widget_id,omitempty" yaml:"widget_id,omitempty"`
	ItemIndex int          `json:"item_index,omitempty" yaml:"item_index,omitempty"`
}

// #endregion

// #region routing-context

// RoutingContext is everything a dispatch needs for one turn.
type RoutingContext struct {
	Input            string
	Session          *Session
	Snapshot         snapshot.TurnSnapshot
	NowMs            int64
	CurrentWorkspace string
	Workspaces       []resolver.CatalogEntry
	Panels           []resolver.CatalogEntry
}

// #endregion

// #region result

// TierDecision records one tier's verdict.
type TierDecision struct {
	Tier    Tier
	Claimed bool
	Reason  string
}

// Result is the terminal outcome of a dispatch.
type Result struct {
	Handled         bool
	HandledByTier   Tier
	TierLabel       string
	Reason          string
	GroundingAction *GroundingAction
	Resolution      *resolver.Resolution
	Options         []clarify.Option
	Message         string
	Decisions       []TierDecision
}

// #endregion

// #region collaborators

// RouteRequest is what deterministic collaborators see.
type RouteRequest struct {
	Input            string
	SessionID        string
	Bare             bool // bare-noun lookup rather than an explicit command
	Snapshot         snapshot.TurnSnapshot
	CurrentWorkspace string
	Workspaces       []resolver.CatalogEntry
	Panels           []resolver.CatalogEntry
	Options          []clarify.Option
	NowMs            int64
}

// RouteResult is a collaborator's answer. A handled route either grounds an
// action, offers options, or just replies.
type RouteResult struct {
	Handled   bool
	TierLabel string
	Action    *GroundingAction
	Options   []clarify.Option
	Message   string
}

// FallbackResult is a free-text collaborator's answer.
type FallbackResult struct {
	Success bool
	Intent  resolver.Intent
	Message string
}

// KnownNounRouter resolves commands and bare nouns to known destinations.
type KnownNounRouter interface {
	Route(ctx context.Context, req RouteRequest) (RouteResult, error)
}

// DocRetriever looks the input up in the document index.
type DocRetriever interface {
	RetrieveDocs(ctx context.Context, req RouteRequest) (RouteResult, error)
}

// CrossCorpusRetriever searches the wider corpus.
type CrossCorpusRetriever interface {
	RetrieveCrossCorpus(ctx context.Context, req RouteRequest) (RouteResult, error)
}

// ClarificationFallback asks a model to map a reply onto the active list.
type ClarificationFallback interface {
	ClarificationEnabled() bool
	ResolveClarification(ctx context.Context, req RouteRequest) (FallbackResult, error)
}

// GroundingFallback asks a model to interpret free text.
type GroundingFallback interface {
	GroundingEnabled() bool
	Ground(ctx context.Context, req RouteRequest) (FallbackResult, error)
}

// SelectionHandler is the legacy stale-list selection path.
type SelectionHandler interface {
	HandleSelection(ctx context.Context, option clarify.Option, index int) (bool, error)
}

// IntentResolver is satisfied by *resolver.Resolver.
type IntentResolver interface {
	Resolve(intent resolver.Intent, ctx resolver.Context) resolver.Resolution
}

// DecisionLogger persists one row per dispatched turn.
type DecisionLogger interface {
	LogDecision(ctx context.Context, entry logging.DecisionEntry) error
}

// Deps are the injected collaborators. Nil members decline.
type Deps struct {
	Nouns         KnownNounRouter
	Docs          DocRetriever
	Corpus        CrossCorpusRetriever
	Clarification ClarificationFallback
	Grounding     GroundingFallback
	Selection     SelectionHandler
	Resolver      IntentResolver
	Decisions     DecisionLogger
}

// #endregion
