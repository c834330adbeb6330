package logging

import "time"

// #region decision-entry
// DecisionEntry is a single row in the decision_log table, one per dispatched
// turn.
type DecisionEntry struct {
	SessionID   string
	TurnID      string
	Input       string
	Tier        int    // 0 when no tier claimed the turn
	TierLabel   string // "explicit_command" | "focus_latch" | ... | "none"
	Handled     bool
	Reason      string
	ActionType  string
	TargetID    string
	RoutingJSON string
	CreatedAt   time.Time
}
// #endregion decision-entry

// #region routing-record
// RoutingRecord captures the arbitration inputs and per-tier verdicts for a
// turn. Serialized as JSON into decision_log.routing_json for replay export.
type RoutingRecord struct {
	TurnID string `json:"turn_id"`
	Input  string `json:"input"`
	NowMs  int64  `json:"now_ms"`

	// Arbitration state as seen at the start of the turn
	LatchKind           string `json:"latch_kind,omitempty"` // "resolved" | "pending" | ""
	LatchWidgetID       string `json:"latch_widget_id,omitempty"`
	LatchSuspended      bool   `json:"latch_suspended"`
	ClarificationActive bool   `json:"clarification_active"`
	ClarificationPaused string `json:"clarification_paused,omitempty"`
	OptionCount         int    `json:"option_count"`

	// Flags active at decision time
	Flags RoutingFlags `json:"flags"`

	Tiers []TierVerdict `json:"tiers"`
}

// RoutingFlags mirrors the feature flags that shaped the turn.
type RoutingFlags struct {
	FocusLatch      bool `json:"focus_latch"`
	SemanticAnswers bool `json:"semantic_answers"`
	LLMFallback     bool `json:"llm_fallback"`
}

// TierVerdict is one tier's outcome.
type TierVerdict struct {
	Tier    int    `json:"tier"`
	Label   string `json:"label"`
	Claimed bool   `json:"claimed"`
	Reason  string `json:"reason"`
}
// #endregion routing-record
