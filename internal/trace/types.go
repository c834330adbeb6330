package trace

import "time"

// #region enums

// Source is the call site family that reported an action.
type Source string

const (
	SourceChat     Source = "chat"
	SourceDirectUI Source = "direct_ui"
	SourceWidget   Source = "widget"
	SourceSystem   Source = "system"
)

// ReasonCode records why the resolver picked the target.
type ReasonCode string

const (
	ReasonExplicitName ReasonCode = "explicit_name"
	ReasonOrdinal      ReasonCode = "ordinal"
	ReasonFocusLatch   ReasonCode = "focus_latch"
	ReasonKnownNoun    ReasonCode = "known_noun"
	ReasonRetrieval    ReasonCode = "retrieval"
	ReasonUnknown      ReasonCode = "unknown"
)

// Outcome of an executed action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// #endregion

// #region records

// Target identifies what an action touched. ID may be empty when only the
// name is known.
type Target struct {
	Kind string `json:"kind" yaml:"kind"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Identity is the ID, falling back to the name.
func (t Target) Identity() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Name
}

// Entry is one committed action. Entries are never mutated after append
// except for the meaningfulness upgrade.
type Entry struct {
	TraceID          string     `json:"trace_id"`
	TsMs             int64      `json:"ts_ms"`
	Seq              int64      `json:"seq"`
	ActionType       string     `json:"action_type"`
	Target           Target     `json:"target"`
	Source           Source     `json:"source"`
	ResolverPath     string     `json:"resolver_path"`
	ReasonCode       ReasonCode `json:"reason_code"`
	ScopeKind        string     `json:"scope_kind"`
	ScopeInstanceID  string     `json:"scope_instance_id"`
	DedupeKey        string     `json:"dedupe_key"`
	IsUserMeaningful bool       `json:"is_user_meaningful"`
	Outcome          Outcome    `json:"outcome"`
}

// Input is what call sites hand to RecordExecutedAction.
type Input struct {
	TsMs             int64
	ActionType       string
	Target           Target
	Source           Source
	ResolverPath     string
	ReasonCode       ReasonCode
	ScopeKind        string
	ScopeInstanceID  string
	IsUserMeaningful bool
	Outcome          Outcome
}

// LastAction is the legacy single-slot mirror and the element type of the
// action history.
type LastAction struct {
	ActionType string     `json:"action_type"`
	Target     Target     `json:"target"`
	TsMs       int64      `json:"ts_ms"`
	Source     Source     `json:"source,omitempty"`
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
}

// writeMemo is the last ledger commit, consulted by the freshness guard.
type writeMemo struct {
	tsMs       int64
	actionType string
	targetID   string
}

// #endregion

// #region config

// Config bounds the ledger and sets its timing windows.
type Config struct {
	DedupeWindow            time.Duration `yaml:"dedupe_window"`
	FreshnessIdentityWindow time.Duration `yaml:"freshness_identity_window"`
	MaxEntries              int           `yaml:"max_entries"`
	MaxHistory              int           `yaml:"max_history"`
}

// DefaultConfig returns the stock ledger settings.
func DefaultConfig() Config {
	return Config{
		DedupeWindow:            500 * time.Millisecond,
		FreshnessIdentityWindow: 200 * time.Millisecond,
		MaxEntries:              500,
		MaxHistory:              50,
	}
}

// #endregion

// Sink persists ledger writes. Errors are logged by the ledger, never
// returned to callers.
type Sink interface {
	AppendEntry(e Entry) error
	MarkMeaningful(traceID string) error
}
