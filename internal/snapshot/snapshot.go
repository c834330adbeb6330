// Package snapshot models the read-only capture of visible UI objects that
// each chat turn is resolved against.
package snapshot

// #region imports
import (
	"time"
)

// #endregion

// DefaultFreshnessThreshold is how old a snapshot may be before callers should
// rebuild it instead of trusting it for ordinal resolution.
const DefaultFreshnessThreshold = 5 * time.Second

// #region types

// Item is a selectable entry inside a widget.
type Item struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Widget is an open UI object that can be the subject of "it" or an ordinal.
type Widget struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Items []Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// ItemLabels returns the labels of the widget's items in order.
func (w Widget) ItemLabels() []string {
	labels := make([]string, len(w.Items))
	for i, it := range w.Items {
		labels[i] = it.Label
	}
	return labels
}

// TurnSnapshot is the time-stamped UI state a turn is resolved against.
type TurnSnapshot struct {
	OpenWidgets            []Widget `json:"open_widgets"`
	ActiveSnapshotWidgetID string   `json:"active_snapshot_widget_id,omitempty"`
	UISnapshotID           string   `json:"ui_snapshot_id"`
	RevisionID             string   `json:"revision_id"`
	CapturedAtMs           int64    `json:"captured_at_ms"`
	HasBadgeLetters        bool     `json:"has_badge_letters"`
}

// Widget looks up an open widget by ID.
func (s TurnSnapshot) Widget(id string) (Widget, bool) {
	if id == "" {
		return Widget{}, false
	}
	for _, w := range s.OpenWidgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// ActiveWidget returns the widget the UI marks as active, if it is open.
func (s TurnSnapshot) ActiveWidget() (Widget, bool) {
	return s.Widget(s.ActiveSnapshotWidgetID)
}

// IsFresh reports whether the snapshot was captured within threshold of nowMs.
func (s TurnSnapshot) IsFresh(nowMs int64, threshold time.Duration) bool {
	return nowMs-s.CapturedAtMs <= threshold.Milliseconds()
}

// #endregion

// #region interfaces

// Provider builds the snapshot for the current turn.
type Provider interface {
	BuildTurnSnapshot() TurnSnapshot
}

// Registry exposes individual widget snapshots.
type Registry interface {
	GetWidgetSnapshot(id string) (Widget, bool)
	GetAllVisibleSnapshots() []Widget
}

// #endregion
