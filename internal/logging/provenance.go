package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a decision entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	handled := 0
	if entry.Handled {
		handled = 1
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (session_id, turn_id, input, tier, tier_label, handled, reason, action_type, target_id, routing_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.TurnID,
		entry.Input,
		entry.Tier,
		entry.TierLabel,
		handled,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.ActionType),
		nullIfEmpty(entry.TargetID),
		nullIfEmpty(entry.RoutingJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}
// #endregion log-decision

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
