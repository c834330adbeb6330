// Package trace is the append-only, deduplicated record of executed actions
// and the single commit point for the legacy last-action mirrors.
package trace

// #region imports
import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// #endregion

// dedupeScanLimit caps how many recent entries a commit inspects.
const dedupeScanLimit = 32

// #region dedupe-key

// ComputeDedupeKey fingerprints an action. Each field is length-prefixed so
// ("ab","c") and ("a","bc") never collide.
func ComputeDedupeKey(actionType string, target Target, scopeKind, scopeInstanceID string) string {
	h := sha256.New()
	var n [4]byte
	for _, f := range []string{actionType, target.Kind, target.ID, scopeKind, scopeInstanceID} {
		binary.BigEndian.PutUint32(n[:], uint32(len(f)))
		h.Write(n[:])
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// #endregion

// #region ledger

// Ledger owns a session's trace plus its legacy mirrors. It is not safe for
// concurrent use; callers run one turn at a time.
type Ledger struct {
	cfg     Config
	entries []Entry // oldest first
	seq     int64
	last    *LastAction
	history []LastAction // newest first
	memo    *writeMemo
	sink    Sink
	log     *zap.Logger
}

// NewLedger creates an empty ledger. sink and logger may be nil. A zero
// Config means DefaultConfig; otherwise only unset bounds are defaulted and a
// zero identity window is kept as exact-timestamp matching.
func NewLedger(cfg Config, sink Sink, logger *zap.Logger) *Ledger {
	def := DefaultConfig()
	if cfg == (Config{}) {
		cfg = def
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = def.DedupeWindow
	}
	if cfg.FreshnessIdentityWindow < 0 {
		cfg.FreshnessIdentityWindow = def.FreshnessIdentityWindow
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = def.MaxHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{cfg: cfg, sink: sink, log: logger}
}

// RecordExecutedAction is the single commit point. It returns the committed
// entry and true, or the existing duplicate and false.
func (l *Ledger) RecordExecutedAction(in Input) (Entry, bool) {
	key := ComputeDedupeKey(in.ActionType, in.Target, in.ScopeKind, in.ScopeInstanceID)

	if i := l.findDuplicate(key, in.TsMs); i >= 0 {
		existing := &l.entries[i]
		if in.IsUserMeaningful && !existing.IsUserMeaningful {
			existing.IsUserMeaningful = true
			l.log.Debug("trace meaningfulness upgraded",
				zap.String("trace_id", existing.TraceID), zap.String("action", existing.ActionType))
			if l.sink != nil {
				if err := l.sink.MarkMeaningful(existing.TraceID); err != nil {
					l.log.Warn("trace sink upgrade failed", zap.Error(err))
				}
			}
		}
		return *existing, false
	}

	outcome := in.Outcome
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	l.seq++
	e := Entry{
		TraceID:          uuid.New().String(),
		TsMs:             in.TsMs,
		Seq:              l.seq,
		ActionType:       in.ActionType,
		Target:           in.Target,
		Source:           in.Source,
		ResolverPath:     in.ResolverPath,
		ReasonCode:       in.ReasonCode,
		ScopeKind:        in.ScopeKind,
		ScopeInstanceID:  in.ScopeInstanceID,
		DedupeKey:        key,
		IsUserMeaningful: in.IsUserMeaningful,
		Outcome:          outcome,
	}
	l.append(e)

	if l.sink != nil {
		if err := l.sink.AppendEntry(e); err != nil {
			l.log.Warn("trace sink append failed", zap.Error(err), zap.String("trace_id", e.TraceID))
		}
	}
	l.log.Debug("trace committed",
		zap.Int64("seq", e.Seq), zap.String("action", e.ActionType),
		zap.String("target", e.Target.Identity()), zap.String("source", string(e.Source)))
	return e, true
}

// SetLastAction is the legacy write path for call sites that bypass the
// ledger. It is suppressed when it echoes the last commit (same type and
// target within the identity window) or is older than it.
func (l *Ledger) SetLastAction(a LastAction) bool {
	if m := l.memo; m != nil {
		delta := a.TsMs - m.tsMs
		if delta < 0 {
			l.log.Debug("legacy write suppressed: out of order",
				zap.String("action", a.ActionType), zap.Int64("delta_ms", delta))
			return false
		}
		sameIdentity := a.ActionType == m.actionType && a.Target.Identity() == m.targetID
		if sameIdentity && delta <= l.cfg.FreshnessIdentityWindow.Milliseconds() {
			l.log.Debug("legacy write suppressed: mirror of trace write",
				zap.String("action", a.ActionType), zap.Int64("delta_ms", delta))
			return false
		}
	}
	l.mirror(a)
	return true
}

// Entries returns the trace newest first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// LastAction returns a copy of the legacy slot, or nil.
func (l *Ledger) LastAction() *LastAction {
	if l.last == nil {
		return nil
	}
	cp := *l.last
	return &cp
}

// History returns the legacy action history newest first.
func (l *Ledger) History() []LastAction {
	return append([]LastAction(nil), l.history...)
}

// Restore replays persisted entries (oldest first) without touching the sink.
func (l *Ledger) Restore(entries []Entry) {
	for _, e := range entries {
		if e.Seq > l.seq {
			l.seq = e.Seq
		}
		l.append(e)
	}
}

func (l *Ledger) append(e Entry) {
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.cfg.MaxEntries; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
	l.mirror(LastAction{
		ActionType: e.ActionType,
		Target:     e.Target,
		TsMs:       e.TsMs,
		Source:     e.Source,
		ReasonCode: e.ReasonCode,
	})
	l.memo = &writeMemo{tsMs: e.TsMs, actionType: e.ActionType, targetID: e.Target.Identity()}
}

func (l *Ledger) mirror(a LastAction) {
	cp := a
	l.last = &cp
	l.history = append([]LastAction{a}, l.history...)
	if len(l.history) > l.cfg.MaxHistory {
		l.history = l.history[:l.cfg.MaxHistory]
	}
}

func (l *Ledger) findDuplicate(key string, tsMs int64) int {
	window := l.cfg.DedupeWindow.Milliseconds()
	scanned := 0
	for i := len(l.entries) - 1; i >= 0 && scanned < dedupeScanLimit; i-- {
		scanned++
		e := l.entries[i]
		d := tsMs - e.TsMs
		if d < 0 {
			d = -d
		}
		if d <= window && e.DedupeKey == key {
			return i
		}
	}
	return -1
}

// #endregion
