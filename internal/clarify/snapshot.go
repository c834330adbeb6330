// Package clarify holds the last disambiguation list shown to the user and
// classifies off-menu replies against it.
package clarify

// #region imports
import (
	"time"
)

// #endregion

const (
	// DefaultMaxTurns is how many turns a list survives unanswered.
	DefaultMaxTurns = 3
	// DefaultTTL bounds the wall-clock age of a list.
	DefaultTTL = 5 * time.Minute
)

// #region types

// Option is one entry of a disambiguation list.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// PauseReason records why a list stopped being the active question.
type PauseReason string

const (
	PauseNone      PauseReason = ""
	PauseInterrupt PauseReason = "interrupt"
	PauseStop      PauseReason = "stop"
)

// Snapshot is a previously shown disambiguation list.
type Snapshot struct {
	Options        []Option    `json:"options"`
	OriginalIntent string      `json:"original_intent"`
	Type           string      `json:"type"`
	TurnsSinceSet  int         `json:"turns_since_set"`
	TimestampMs    int64       `json:"timestamp_ms"`
	Paused         bool        `json:"paused"`
	PausedReason   PauseReason `json:"paused_reason,omitempty"`
	Attempts       int         `json:"attempts"`
}

// Labels returns option labels in list order.
func (s Snapshot) Labels() []string {
	out := make([]string, len(s.Options))
	for i, o := range s.Options {
		out[i] = o.Label
	}
	return out
}

// Active is true while the list is still the open question.
func (s Snapshot) Active() bool {
	return !s.Paused
}

// #endregion

// #region slot

// Slot holds at most one Snapshot per conversation. Not safe for concurrent
// use; the dispatcher runs one turn at a time.
type Slot struct {
	snap        *Snapshot
	maxTurns    int
	ttl         time.Duration
	setThisTurn bool
}

// NewSlot creates an empty slot. Non-positive limits use the defaults.
func NewSlot(maxTurns int, ttl time.Duration) *Slot {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Slot{maxTurns: maxTurns, ttl: ttl}
}

// Set records a freshly shown list, replacing any previous one.
func (s *Slot) Set(options []Option, originalIntent, typ string, nowMs int64) Snapshot {
	snap := Snapshot{
		Options:        append([]Option(nil), options...),
		OriginalIntent: originalIntent,
		Type:           typ,
		TimestampMs:    nowMs,
	}
	s.snap = &snap
	s.setThisTurn = true
	return snap
}

// Restore installs a persisted snapshot as-is.
func (s *Slot) Restore(snap *Snapshot) {
	if snap == nil {
		s.snap = nil
		return
	}
	cp := *snap
	cp.Options = append([]Option(nil), snap.Options...)
	s.snap = &cp
}

// Get returns a copy of the current snapshot, or nil.
func (s *Slot) Get() *Snapshot {
	if s.snap == nil {
		return nil
	}
	cp := *s.snap
	cp.Options = append([]Option(nil), s.snap.Options...)
	return &cp
}

// Clear drops the snapshot.
func (s *Slot) Clear() {
	s.snap = nil
}

// Pause marks the list as no longer the open question. Returns false if there
// is nothing to pause.
func (s *Slot) Pause(reason PauseReason) bool {
	if s.snap == nil {
		return false
	}
	s.snap.Paused = true
	s.snap.PausedReason = reason
	return true
}

// RecordAttempt counts an unresolved reply and returns the new count.
func (s *Slot) RecordAttempt() int {
	if s.snap == nil {
		return 0
	}
	s.snap.Attempts++
	return s.snap.Attempts
}

// Expire clears the snapshot if it is stale by turn count or age.
func (s *Slot) Expire(nowMs int64) bool {
	if s.snap == nil {
		return false
	}
	age := time.Duration(nowMs-s.snap.TimestampMs) * time.Millisecond
	if s.snap.TurnsSinceSet > s.maxTurns || age > s.ttl {
		s.snap = nil
		return true
	}
	return false
}

// Advance is the per-turn step. The turn the list was shown on is not
// counted.
func (s *Slot) Advance(nowMs int64) {
	if s.setThisTurn {
		s.setThisTurn = false
		return
	}
	if s.snap == nil {
		return
	}
	s.snap.TurnsSinceSet++
	s.Expire(nowMs)
}

// #endregion
