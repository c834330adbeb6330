// Package latch tracks which UI object chat is anchored to across turns.
//
// A latch is a tagged variant (resolved or pending) with an orthogonal
// suspended flag, held in a single Slot per conversation. All transitions live
// here; callers never mutate a Latch directly.
package latch

// #region imports
import (
	"fmt"
	"sync"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

// #endregion

// DefaultPendingExpiryTurns is how many turns a pending latch survives
// without its target registering.
const DefaultPendingExpiryTurns = 2

// #region types

// Kind discriminates the latch variant.
type Kind string

const (
	KindResolved Kind = "resolved"
	KindPending  Kind = "pending"
)

// Latch anchors implicit references to one widget. Resolved latches carry
// WidgetID; pending latches carry PendingTargetID until the widget registers.
type Latch struct {
	Kind              Kind   `json:"kind"`
	WidgetID          string `json:"widget_id,omitempty"`
	PendingTargetID   string `json:"pending_target_id,omitempty"`
	WidgetLabel       string `json:"widget_label"`
	LatchedAtMs       int64  `json:"latched_at_ms"`
	TurnsSinceLatched int    `json:"turns_since_latched"`
	Suspended         bool   `json:"suspended"`
}

// TargetID returns the widget the latch points at, resolved or not.
func (l Latch) TargetID() string {
	if l.Kind == KindResolved {
		return l.WidgetID
	}
	return l.PendingTargetID
}

// #endregion

// #region predicates

// BlocksStaleChat reports whether ordinal capture by a stale chat list must be
// skipped in favour of the live widget.
func BlocksStaleChat(enabled bool, l *Latch) bool {
	return enabled && l != nil && !l.Suspended
}

// Target is the outcome of resolving the latch to a live widget.
// Handled with an empty WidgetID means "claimed, but nothing to resolve yet".
type Target struct {
	WidgetID string
	Handled  bool
	Message  string
}

// ResolveActiveWidgetID resolves the latch against the snapshot. A pending
// latch falls back to the snapshot's active widget when that widget is open;
// without one the turn is claimed and the still-loading message is emitted on
// the first turn only.
func ResolveActiveWidgetID(l *Latch, snap snapshot.TurnSnapshot) Target {
	if l == nil {
		return Target{}
	}
	if l.Kind == KindResolved {
		return Target{WidgetID: l.WidgetID, Handled: true}
	}
	if w, ok := snap.ActiveWidget(); ok {
		return Target{WidgetID: w.ID, Handled: true}
	}
	t := Target{Handled: true}
	if l.TurnsSinceLatched == 0 {
		t.Message = StillLoadingMessage(l.WidgetLabel)
	}
	return t
}

// StillLoadingMessage is shown once while a pending target has not registered.
func StillLoadingMessage(label string) string {
	if label == "" {
		return "That is still loading. Try again in a moment."
	}
	return fmt.Sprintf("%s is still loading. Try again in a moment.", label)
}

// #endregion

// #region slot

// Slot holds at most one latch for a conversation. Widget registration
// callbacks may arrive from UI goroutines, so the slot is locked.
type Slot struct {
	mu            sync.Mutex
	latch         *Latch
	pendingExpiry int
	setThisTurn   bool
}

// NewSlot creates an empty slot. Non-positive expiry uses the default.
func NewSlot(pendingExpiryTurns int) *Slot {
	if pendingExpiryTurns <= 0 {
		pendingExpiryTurns = DefaultPendingExpiryTurns
	}
	return &Slot{pendingExpiry: pendingExpiryTurns}
}

// Get returns a copy of the current latch, or nil.
func (s *Slot) Get() *Latch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latch == nil {
		return nil
	}
	cp := *s.latch
	return &cp
}

// Set replaces any latch with one for targetID. The latch is resolved when the
// target is already in the snapshot, pending otherwise.
func (s *Slot) Set(snap snapshot.TurnSnapshot, targetID, label string, nowMs int64) Latch {
	l := Latch{WidgetLabel: label, LatchedAtMs: nowMs}
	if w, ok := snap.Widget(targetID); ok {
		l.Kind = KindResolved
		l.WidgetID = targetID
		if l.WidgetLabel == "" {
			l.WidgetLabel = w.Label
		}
	} else {
		l.Kind = KindPending
		l.PendingTargetID = targetID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latch = &l
	s.setThisTurn = true
	return l
}

// Restore installs a previously persisted latch as-is.
func (s *Slot) Restore(l *Latch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil {
		s.latch = nil
		return
	}
	cp := *l
	s.latch = &cp
}

// Clear removes the latch.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latch = nil
}

// Suspend defers the latch without destroying it. Returns false if absent.
func (s *Slot) Suspend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latch == nil {
		return false
	}
	s.latch.Suspended = true
	return true
}

// Resume lifts a suspension. Returns false if absent or not suspended.
func (s *Slot) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latch == nil || !s.latch.Suspended {
		return false
	}
	s.latch.Suspended = false
	return true
}

// Upgrade turns a pending latch into a resolved one when its target appears
// in snap. Label, latch time and turn count are preserved.
func (s *Slot) Upgrade(snap snapshot.TurnSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latch == nil || s.latch.Kind != KindPending {
		return false
	}
	if _, ok := snap.Widget(s.latch.PendingTargetID); !ok {
		return false
	}
	s.latch.Kind = KindResolved
	s.latch.WidgetID = s.latch.PendingTargetID
	s.latch.PendingTargetID = ""
	return true
}

// OnWidgetRegistered is the registration callback; it matches
// snapshot.RegisterFunc.
func (s *Slot) OnWidgetRegistered(_ snapshot.Widget, snap snapshot.TurnSnapshot) {
	s.Upgrade(snap)
}

// Advance is the per-turn step. It skips the turn the latch was set on, then
// counts turns and drops a pending latch once it reaches the expiry.
func (s *Slot) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setThisTurn {
		s.setThisTurn = false
		return
	}
	if s.latch == nil {
		return
	}
	s.latch.TurnsSinceLatched++
	if s.latch.Kind == KindPending && s.latch.TurnsSinceLatched >= s.pendingExpiry {
		s.latch = nil
	}
}

// #endregion
