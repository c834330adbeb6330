package snapshot

// #region imports
import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// #endregion

// #region memory-registry

// RegisterFunc is called after a widget registers, with a fresh snapshot.
type RegisterFunc func(w Widget, snap TurnSnapshot)

// MemoryRegistry is an in-process Provider and Registry. Widgets may register
// from the UI side at any time, so access is locked.
type MemoryRegistry struct {
	mu        sync.RWMutex
	widgets   []Widget
	activeID  string
	revision  int
	now       func() time.Time
	listeners []RegisterFunc
}

// NewMemoryRegistry creates an empty registry. now may be nil.
func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRegistry{now: now}
}

// OnRegister adds a callback invoked after every Register.
func (r *MemoryRegistry) OnRegister(fn RegisterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Register adds or replaces a widget and marks it active.
func (r *MemoryRegistry) Register(w Widget) {
	r.mu.Lock()
	replaced := false
	for i := range r.widgets {
		if r.widgets[i].ID == w.ID {
			r.widgets[i] = w
			replaced = true
			break
		}
	}
	if !replaced {
		r.widgets = append(r.widgets, w)
	}
	r.activeID = w.ID
	r.revision++
	listeners := append([]RegisterFunc(nil), r.listeners...)
	snap := r.buildLocked()
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(w, snap)
	}
}

// Unregister removes a widget. The active marker is cleared if it pointed at it.
func (r *MemoryRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.widgets[:0]
	for _, w := range r.widgets {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	r.widgets = kept
	if r.activeID == id {
		r.activeID = ""
	}
	r.revision++
}

// SetActive marks an open widget as active. Unknown IDs are ignored.
func (r *MemoryRegistry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.widgets {
		if w.ID == id {
			r.activeID = id
			r.revision++
			return
		}
	}
}

// BuildTurnSnapshot captures the current widgets.
func (r *MemoryRegistry) BuildTurnSnapshot() TurnSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buildLocked()
}

func (r *MemoryRegistry) buildLocked() TurnSnapshot {
	widgets := make([]Widget, len(r.widgets))
	copy(widgets, r.widgets)
	return TurnSnapshot{
		OpenWidgets:            widgets,
		ActiveSnapshotWidgetID: r.activeID,
		UISnapshotID:           uuid.NewString(),
		RevisionID:             "rev-" + strconv.Itoa(r.revision),
		CapturedAtMs:           r.now().UnixMilli(),
	}
}

// GetWidgetSnapshot returns a registered widget by ID.
func (r *MemoryRegistry) GetWidgetSnapshot(id string) (Widget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.widgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// GetAllVisibleSnapshots returns every registered widget.
func (r *MemoryRegistry) GetAllVisibleSnapshots() []Widget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Widget, len(r.widgets))
	copy(out, r.widgets)
	return out
}

// #endregion
