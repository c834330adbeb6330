package state

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("state: not found")

// #region trace-record
// TraceRecord is a persisted ledger entry with its owning session.
type TraceRecord struct {
	SessionID string
	trace.Entry
	CreatedAt time.Time
}
// #endregion trace-record

// #region decision-record
// DecisionRecord is a decision_log row with its row ID.
type DecisionRecord struct {
	ID int64
	logging.DecisionEntry
}
// #endregion decision-record

// #region session-summary
// SessionSummary aggregates one session's decision rows.
type SessionSummary struct {
	SessionID string
	Turns     int
	Handled   int
	LastAt    time.Time
}
// #endregion session-summary
