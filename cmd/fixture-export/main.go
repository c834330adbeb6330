package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/replay"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/state"
)

var (
	dbPath    string
	sessionID string
	last      int
	outPath   string
)

// #region main

func main() {
	rootCmd := &cobra.Command{
		Use:   "fixture-export",
		Short: "Export a session's decision log as a replay fixture",
		Long: `fixture-export writes the newest --last turns of a session as a YAML
fixture that expects each recorded tier, action and target. Without
--session the most recently active session is used.

Widget registrations and workspace catalogs are not logged; add them to
the fixture before replaying turns that depended on them.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := state.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer store.Close()
			return run(cmd.OutOrStdout(), store, sessionID, last, outPath)
		},
	}
	rootCmd.Flags().StringVar(&dbPath, "db", "arbiter.db", "path to arbiter.db")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "session to export (most recent when empty)")
	rootCmd.Flags().IntVar(&last, "last", 10, "number of most recent turns to export (0 for all)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output fixture YAML path")
	_ = rootCmd.MarkFlagRequired("out")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(w io.Writer, store *state.Store, sessionID string, last int, outPath string) error {
	if sessionID == "" {
		sums, err := store.ListSessions(1)
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			return fmt.Errorf("no sessions in decision log")
		}
		sessionID = sums[0].SessionID
	}

	recs, err := store.ListDecisions(sessionID, 0)
	if err != nil {
		return err
	}
	if last > 0 && len(recs) > last {
		recs = recs[len(recs)-last:]
	}
	if len(recs) == 0 {
		return fmt.Errorf("no decisions for session %s", sessionID)
	}

	fmt.Fprintf(w, "Found %d turns in session %s\n", len(recs), sessionID)

	entries := make([]logging.DecisionEntry, len(recs))
	for i, r := range recs {
		entries[i] = r.DecisionEntry
	}
	desc := fmt.Sprintf("Session export: %d turns from %s", len(entries), sessionID)
	return writeFixture(w, replay.FromDecisions(desc, entries), outPath)
}

// #endregion extract

// #region output

func writeFixture(w io.Writer, f *replay.Fixture, outPath string) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(w, "Wrote fixture to %s (%d bytes, %d steps)\n", outPath, len(data), len(f.Steps))
	return nil
}

// #endregion output
