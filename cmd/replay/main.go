package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/replay"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/state"
)

var (
	dbPath      string
	sessionID   string
	fixturePath string
	verbose     bool
)

// #region main

func main() {
	exitCode := 0
	rootCmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded turns through a fresh dispatcher and compare",
		Long: `replay runs a YAML fixture (--fixture) or a session from the decision
log (--db with --session) and prints expected against replayed tiers.

Sessions replayed from the database carry no UI events or catalogs, so
turns that depended on a registered widget or a workspace list may diverge.
Export them with fixture-export and add those by hand.

Exit status: 0 when every turn matches, 1 on divergence, 2 on errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadInput()
			if err != nil {
				return err
			}
			code, err := run(cmd.Context(), cmd.OutOrStdout(), f, verbose)
			exitCode = code
			return err
		},
	}
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture YAML (fixture mode)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to arbiter.db (DB mode)")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "session to replay (DB mode)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the reason for each divergence")
	rootCmd.MarkFlagsMutuallyExclusive("fixture", "db")
	rootCmd.MarkFlagsOneRequired("fixture", "db")
	rootCmd.MarkFlagsRequiredTogether("db", "session")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region input

func loadInput() (*replay.Fixture, error) {
	if fixturePath != "" {
		f, err := replay.LoadFixture(fixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		return f, nil
	}

	store, err := state.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer store.Close()
	return fixtureFromStore(store, sessionID)
}

// fixtureFromStore turns a session's decision log into a fixture.
func fixtureFromStore(store *state.Store, sessionID string) (*replay.Fixture, error) {
	recs, err := store.ListDecisions(sessionID, 0)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no decisions for session %s", sessionID)
	}
	entries := make([]logging.DecisionEntry, len(recs))
	for i, r := range recs {
		entries[i] = r.DecisionEntry
	}
	return replay.FromDecisions("session "+sessionID, entries), nil
}

// #endregion input

// #region output

func run(ctx context.Context, w io.Writer, f *replay.Fixture, verbose bool) (int, error) {
	results, err := replay.Replay(ctx, f, replay.Options{})
	if err != nil {
		return 2, fmt.Errorf("replay: %w", err)
	}
	return printComparison(w, results, verbose), nil
}

// printComparison outputs a comparison table and returns the exit code.
// Turns without an expectation are listed but never counted as divergent.
func printComparison(w io.Writer, results []replay.TurnResult, verbose bool) int {
	fmt.Fprintf(w, "%-5s| %-28s| %-20s| %-22s| %s\n", "Step", "Input", "Replayed", "Action", "Match")
	fmt.Fprintf(w, "%-5s+%-29s+%-21s+%-23s+%s\n",
		"-----", "-----------------------------", "---------------------", "-----------------------", "------")

	for _, r := range results {
		match := "OK"
		if !r.OK() {
			match = "DIFF"
		}
		action := r.Action
		if r.Target != "" {
			action += " " + r.Target
		}
		if r.Options > 0 {
			action = fmt.Sprintf("%d options", r.Options)
		}
		fmt.Fprintf(w, "%-5d| %-28s| %-20s| %-22s| %s\n", r.Step, clip(r.Input, 28), r.TierLabel, clip(action, 22), match)
		if verbose && !r.OK() {
			for _, m := range r.Mismatches {
				fmt.Fprintf(w, "     |   %s\n", m)
			}
		}
	}

	s := replay.Summarize(results)
	fmt.Fprintf(w, "\nSummary: %d total, %d handled, %d unhandled, %d diverge\n",
		s.TotalTurns, s.Handled, s.Unhandled, s.Mismatches)

	tiers := make([]string, 0, len(s.ByTier))
	for t := range s.ByTier {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	for _, t := range tiers {
		fmt.Fprintf(w, "  %-20s %d\n", t, s.ByTier[t])
	}

	if s.Mismatches > 0 {
		return 1
	}
	return 0
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// #endregion output
