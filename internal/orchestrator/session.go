package orchestrator

// #region imports
import (
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/latch"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #endregion

// #region session

// SessionConfig sizes the per-conversation state.
type SessionConfig struct {
	PendingExpiryTurns    int
	ClarificationMaxTurns int
	ClarificationTTL      time.Duration
	Trace                 trace.Config
}

// Session owns the per-conversation arbitration state. One turn runs at a
// time against a session.
type Session struct {
	ID            string
	Latch         *latch.Slot
	Clarification *clarify.Slot
	Ledger        *trace.Ledger
}

// NewSession creates empty session state. sink and logger may be nil.
func NewSession(id string, cfg SessionConfig, sink trace.Sink, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ID:            id,
		Latch:         latch.NewSlot(cfg.PendingExpiryTurns),
		Clarification: clarify.NewSlot(cfg.ClarificationMaxTurns, cfg.ClarificationTTL),
		Ledger:        trace.NewLedger(cfg.Trace, sink, logger.Named("trace").With(zap.String("session", id))),
	}
}

// activeClarification returns the list only while it is the open question.
func (s *Session) activeClarification() *clarify.Snapshot {
	snap := s.Clarification.Get()
	if snap == nil || !snap.Active() {
		return nil
	}
	return snap
}

// #endregion
