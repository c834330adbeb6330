package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS action_trace (
	trace_id           TEXT PRIMARY KEY,
	session_id         TEXT NOT NULL,
	ts_ms              INTEGER NOT NULL,
	seq                INTEGER NOT NULL,
	action_type        TEXT NOT NULL,
	target_kind        TEXT NOT NULL,
	target_id          TEXT,
	target_name        TEXT,
	source             TEXT NOT NULL,
	resolver_path      TEXT,
	reason_code        TEXT NOT NULL,
	scope_kind         TEXT,
	scope_instance_id  TEXT,
	dedupe_key         TEXT NOT NULL,
	is_user_meaningful INTEGER NOT NULL,
	outcome            TEXT NOT NULL,
	created_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_action_trace_session ON action_trace(session_id, seq);

CREATE TABLE IF NOT EXISTS decision_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	turn_id      TEXT NOT NULL,
	input        TEXT NOT NULL,
	tier         INTEGER NOT NULL,
	tier_label   TEXT NOT NULL,
	handled      INTEGER NOT NULL,
	reason       TEXT,
	action_type  TEXT,
	target_id    TEXT,
	routing_json TEXT,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decision_log_session ON decision_log(session_id, id);
`
// #endregion schema

// #region store-struct
// Store persists the action trace and the decision log in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region sink
// SinkFor returns a trace.Sink that writes one session's ledger entries.
func (s *Store) SinkFor(sessionID string) trace.Sink {
	return &sessionSink{store: s, sessionID: sessionID}
}

type sessionSink struct {
	store     *Store
	sessionID string
}

func (k *sessionSink) AppendEntry(e trace.Entry) error {
	return k.store.AppendEntry(k.sessionID, e)
}

func (k *sessionSink) MarkMeaningful(traceID string) error {
	return k.store.MarkMeaningful(traceID)
}
// #endregion sink

// #region append-entry
// AppendEntry inserts a ledger entry for the session.
func (s *Store) AppendEntry(sessionID string, e trace.Entry) error {
	meaningful := 0
	if e.IsUserMeaningful {
		meaningful = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO action_trace (trace_id, session_id, ts_ms, seq, action_type, target_kind, target_id, target_name,
		 source, resolver_path, reason_code, scope_kind, scope_instance_id, dedupe_key, is_user_meaningful, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TraceID, sessionID, e.TsMs, e.Seq, e.ActionType,
		e.Target.Kind, nullIfEmpty(e.Target.ID), nullIfEmpty(e.Target.Name),
		string(e.Source), nullIfEmpty(e.ResolverPath), string(e.ReasonCode),
		nullIfEmpty(e.ScopeKind), nullIfEmpty(e.ScopeInstanceID),
		e.DedupeKey, meaningful, string(e.Outcome),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert trace entry: %w", err)
	}
	return nil
}
// #endregion append-entry

// #region mark-meaningful
// MarkMeaningful flips an existing entry to user-meaningful. It never
// downgrades.
func (s *Store) MarkMeaningful(traceID string) error {
	res, err := s.db.Exec(`UPDATE action_trace SET is_user_meaningful = 1 WHERE trace_id = ?`, traceID)
	if err != nil {
		return fmt.Errorf("mark meaningful: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark meaningful: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("mark meaningful %s: %w", traceID, ErrNotFound)
	}
	return nil
}
// #endregion mark-meaningful

// #region get-entry
// GetEntry returns one ledger entry by trace ID.
func (s *Store) GetEntry(traceID string) (TraceRecord, error) {
	row := s.db.QueryRow(traceSelect+` WHERE trace_id = ?`, traceID)
	rec, err := scanTrace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TraceRecord{}, fmt.Errorf("get entry %s: %w", traceID, ErrNotFound)
	}
	if err != nil {
		return TraceRecord{}, fmt.Errorf("get entry %s: %w", traceID, err)
	}
	return rec, nil
}
// #endregion get-entry

// #region list-trace
// ListTrace returns a session's ledger entries newest first. limit <= 0
// returns all of them.
func (s *Store) ListTrace(sessionID string, limit int) ([]TraceRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(traceSelect+` WHERE session_id = ? ORDER BY seq DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list trace: %w", err)
	}
	defer rows.Close()

	var records []TraceRecord
	for rows.Next() {
		rec, err := scanTrace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-trace

// #region load-ledger
// LoadLedger rebuilds a session's in-memory ledger from the newest
// cfg.MaxEntries persisted entries and wires the store as its sink.
func (s *Store) LoadLedger(sessionID string, cfg trace.Config, logger *zap.Logger) (*trace.Ledger, error) {
	records, err := s.ListTrace(sessionID, cfg.MaxEntries)
	if err != nil {
		return nil, err
	}
	entries := make([]trace.Entry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		entries = append(entries, records[i].Entry)
	}
	l := trace.NewLedger(cfg, s.SinkFor(sessionID), logger)
	l.Restore(entries)
	return l, nil
}
// #endregion load-ledger

// #region log-decision
// LogDecision writes one dispatched turn to the decision log.
func (s *Store) LogDecision(ctx context.Context, entry logging.DecisionEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return logging.LogDecision(s.db, entry)
}
// #endregion log-decision

// #region list-decisions
// ListDecisions returns a session's decision rows oldest first. limit <= 0
// returns all of them.
func (s *Store) ListDecisions(sessionID string, limit int) ([]DecisionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, turn_id, input, tier, tier_label, handled, reason, action_type, target_id, routing_json, created_at
		 FROM decision_log WHERE session_id = ? ORDER BY id ASC LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var records []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var handled int
		var reason, actionType, targetID, routingJSON sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.TurnID, &rec.Input, &rec.Tier, &rec.TierLabel,
			&handled, &reason, &actionType, &targetID, &routingJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		rec.Handled = handled == 1
		rec.Reason = reason.String
		rec.ActionType = actionType.String
		rec.TargetID = targetID.String
		rec.RoutingJSON = routingJSON.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-decisions

// #region list-sessions
// ListSessions summarizes every session in the decision log, most recent
// first.
func (s *Store) ListSessions(limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT session_id, COUNT(*), SUM(handled), MAX(created_at)
		 FROM decision_log GROUP BY session_id ORDER BY MAX(id) DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var lastStr string
		if err := rows.Scan(&sum.SessionID, &sum.Turns, &sum.Handled, &lastStr); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sum.LastAt, _ = time.Parse(time.RFC3339Nano, lastStr)
		out = append(out, sum)
	}
	return out, rows.Err()
}
// #endregion list-sessions

// #region scan-helpers
const traceSelect = `SELECT trace_id, session_id, ts_ms, seq, action_type, target_kind, target_id, target_name,
	source, resolver_path, reason_code, scope_kind, scope_instance_id, dedupe_key, is_user_meaningful, outcome, created_at
	FROM action_trace`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrace(r rowScanner) (TraceRecord, error) {
	var rec TraceRecord
	var targetID, targetName, resolverPath, scopeKind, scopeID sql.NullString
	var source, reason, outcome, createdStr string
	var meaningful int
	err := r.Scan(&rec.TraceID, &rec.SessionID, &rec.TsMs, &rec.Seq, &rec.ActionType,
		&rec.Target.Kind, &targetID, &targetName, &source, &resolverPath, &reason,
		&scopeKind, &scopeID, &rec.DedupeKey, &meaningful, &outcome, &createdStr)
	if err != nil {
		return TraceRecord{}, err
	}
	rec.Target.ID = targetID.String
	rec.Target.Name = targetName.String
	rec.Source = trace.Source(source)
	rec.ResolverPath = resolverPath.String
	rec.ReasonCode = trace.ReasonCode(reason)
	rec.ScopeKind = scopeKind.String
	rec.ScopeInstanceID = scopeID.String
	rec.IsUserMeaningful = meaningful == 1
	rec.Outcome = trace.Outcome(outcome)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion scan-helpers
