package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/state"
)

var (
	dbPath    string
	sessionID string
	last      int
	jsonOut   bool
)

// #region main

func main() {
	rootCmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Read sessions, decisions and the action trace from arbiter.db",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "arbiter.db", "path to the SQLite store")
	rootCmd.PersistentFlags().IntVar(&last, "last", 20, "show N most recent rows (0 for all)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions, most recent first",
		RunE: withStore(func(cmd *cobra.Command, store *state.Store, _ []string) error {
			return runSessions(cmd.OutOrStdout(), store, last, jsonOut)
		}),
	}

	decisionsCmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show one session's routing decisions, oldest first",
		RunE: withStore(func(cmd *cobra.Command, store *state.Store, _ []string) error {
			return runDecisions(cmd.OutOrStdout(), store, sessionID, last, jsonOut)
		}),
	}
	decisionsCmd.Flags().StringVar(&sessionID, "session", "", "session ID")
	_ = decisionsCmd.MarkFlagRequired("session")

	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Show one session's action trace, newest first",
		RunE: withStore(func(cmd *cobra.Command, store *state.Store, _ []string) error {
			return runTrace(cmd.OutOrStdout(), store, sessionID, last, jsonOut)
		}),
	}
	traceCmd.Flags().StringVar(&sessionID, "session", "", "session ID")
	_ = traceCmd.MarkFlagRequired("session")

	entryCmd := &cobra.Command{
		Use:   "entry <trace-id>",
		Short: "Show one trace entry in detail",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *state.Store, args []string) error {
			return runEntry(cmd.OutOrStdout(), store, args[0], jsonOut)
		}),
	}

	rootCmd.AddCommand(sessionsCmd, decisionsCmd, traceCmd, entryCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func withStore(fn func(*cobra.Command, *state.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := state.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

// #endregion main

// #region sessions

type sessionRow struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	Handled   int    `json:"handled"`
	LastAt    string `json:"last_at"`
}

func runSessions(w io.Writer, store *state.Store, last int, jsonOut bool) error {
	sums, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]sessionRow, len(sums))
	for i, s := range sums {
		rows[i] = sessionRow{
			SessionID: s.SessionID,
			Turns:     s.Turns,
			Handled:   s.Handled,
			LastAt:    s.LastAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if jsonOut {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-36s  %5s  %7s  %s\n", "Session", "Turns", "Handled", "Last")
	fmt.Fprintf(w, "%-36s+-%5s+-%7s+-%s\n",
		"------------------------------------", "-----", "-------", "--------------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-36s  %5d  %7d  %s\n", r.SessionID, r.Turns, r.Handled, r.LastAt)
	}
	return nil
}

// #endregion sessions

// #region decisions

type decisionRow struct {
	ID        int64                  `json:"id"`
	TurnID    string                 `json:"turn_id"`
	Input     string                 `json:"input"`
	Tier      string                 `json:"tier"`
	Handled   bool                   `json:"handled"`
	Action    string                 `json:"action,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	CreatedAt string                 `json:"created_at"`
	Routing   *logging.RoutingRecord `json:"routing,omitempty"`
}

func runDecisions(w io.Writer, store *state.Store, sessionID string, last int, jsonOut bool) error {
	// ListDecisions is oldest first, so take everything and keep the tail.
	recs, err := store.ListDecisions(sessionID, 0)
	if err != nil {
		return err
	}
	if last > 0 && len(recs) > last {
		recs = recs[len(recs)-last:]
	}
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "no decisions for session %s\n", sessionID)
		return nil
	}

	rows := make([]decisionRow, len(recs))
	for i, r := range recs {
		rows[i] = decisionRow{
			ID:        r.ID,
			TurnID:    r.TurnID,
			Input:     r.Input,
			Tier:      r.TierLabel,
			Handled:   r.Handled,
			Action:    r.ActionType,
			Target:    r.TargetID,
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
			Routing:   parseRouting(r.RoutingJSON),
		}
	}
	if jsonOut {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-5s  %-28s  %-20s  %-3s  %-20s  %s\n", "#", "Input", "Tier", "OK", "Action", "Target")
	fmt.Fprintf(w, "%-5s+-%-28s+-%-20s+-%-3s+-%-20s+-%s\n",
		"-----", "----------------------------", "--------------------", "---", "--------------------", "--------")
	for _, r := range rows {
		ok := "-"
		if r.Handled {
			ok = "y"
		}
		fmt.Fprintf(w, "%-5d  %-28s  %-20s  %-3s  %-20s  %s\n",
			r.ID, truncate(r.Input, 28), r.Tier, ok, dash(r.Action), dash(r.Target))
	}
	return nil
}

func parseRouting(routingJSON string) *logging.RoutingRecord {
	if routingJSON == "" {
		return nil
	}
	var rr logging.RoutingRecord
	if err := json.Unmarshal([]byte(routingJSON), &rr); err == nil && rr.TurnID != "" {
		return &rr
	}
	return nil
}

// #endregion decisions

// #region trace

func runTrace(w io.Writer, store *state.Store, sessionID string, last int, jsonOut bool) error {
	recs, err := store.ListTrace(sessionID, last)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "no trace entries for session %s\n", sessionID)
		return nil
	}
	if jsonOut {
		return printJSON(w, recs)
	}

	fmt.Fprintf(w, "%-5s  %-10s  %-20s  %-24s  %-18s  %s\n", "Seq", "Trace", "Action", "Target", "Path", "Meaningful")
	fmt.Fprintf(w, "%-5s+-%-10s+-%-20s+-%-24s+-%-18s+-%s\n",
		"-----", "----------", "--------------------", "------------------------", "------------------", "----------")
	for _, r := range recs {
		fmt.Fprintf(w, "%-5d  %-10s  %-20s  %-24s  %-18s  %v\n",
			r.Seq, shortID(r.TraceID), r.ActionType, truncate(r.Target.Identity(), 24), dash(r.ResolverPath), r.IsUserMeaningful)
	}
	return nil
}

func runEntry(w io.Writer, store *state.Store, traceID string, jsonOut bool) error {
	rec, err := store.GetEntry(traceID)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(w, rec)
	}

	fmt.Fprintf(w, "Trace:      %s\n", rec.TraceID)
	fmt.Fprintf(w, "Session:    %s\n", rec.SessionID)
	fmt.Fprintf(w, "Seq:        %d\n", rec.Seq)
	fmt.Fprintf(w, "Created:    %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(w, "Action:     %s\n", rec.ActionType)
	fmt.Fprintf(w, "Target:     %s %s (%s)\n", rec.Target.Kind, dash(rec.Target.ID), rec.Target.Name)
	fmt.Fprintf(w, "Source:     %s\n", rec.Source)
	fmt.Fprintf(w, "Path:       %s\n", dash(rec.ResolverPath))
	fmt.Fprintf(w, "Reason:     %s\n", rec.ReasonCode)
	fmt.Fprintf(w, "Scope:      %s/%s\n", rec.ScopeKind, rec.ScopeInstanceID)
	fmt.Fprintf(w, "Outcome:    %s\n", rec.Outcome)
	fmt.Fprintf(w, "Meaningful: %v\n", rec.IsUserMeaningful)
	return nil
}

// #endregion trace

// #region output

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// #endregion output
