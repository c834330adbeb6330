// Package replay runs recorded conversations through an in-memory dispatcher
// and compares each turn with what the recording expects.
package replay

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/nouns"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/retrieval"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region types

// Options tune a replay run. Every field is optional.
type Options struct {
	Logger    *zap.Logger
	Decisions orchestrator.DecisionLogger
	Sink      trace.Sink
	SessionID string
	StartMs   int64
	TurnGap   time.Duration // clock advance before each chat turn
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	Step       int
	Input      string
	TierLabel  string
	Handled    bool
	Action     string
	Target     string
	Options    int
	History    int
	Message    string
	Reason     string
	Mismatches []string
}

// OK is true when the turn met its expectation.
func (r TurnResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalTurns int
	Handled    int
	Unhandled  int
	Mismatches int
	ByTier     map[string]int
}

// #endregion types

// #region replay

// Replay applies every step of f to a fresh session and dispatcher. UI events
// mutate the in-memory widget registry; chat turns are dispatched against a
// snapshot taken just before the turn.
func Replay(ctx context.Context, f *Fixture, opts Options) ([]TurnResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SessionID == "" {
		opts.SessionID = "replay"
	}
	if opts.StartMs == 0 {
		opts.StartMs = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC).UnixMilli()
	}
	if opts.TurnGap <= 0 {
		opts.TurnGap = time.Second
	}

	nowMs := opts.StartMs
	reg := snapshot.NewMemoryRegistry(func() time.Time { return time.UnixMilli(nowMs) })

	deps := orchestrator.Deps{
		Nouns:     nouns.NewRouter(f.Nouns, logger),
		Decisions: opts.Decisions,
	}
	if len(f.Documents) > 0 {
		r := retrieval.NewRetriever(newMemoryIndex(f.Documents), retrieval.DefaultConfig(), "docs", logger)
		deps.Docs = retrieval.Docs{Retriever: r}
	}
	orch := orchestrator.New(orchestrator.Config{Features: f.features()}, deps, logger)
	sess := orchestrator.NewSession(opts.SessionID, orchestrator.SessionConfig{}, opts.Sink, logger)
	reg.OnRegister(sess.Latch.OnWidgetRegistered)

	var results []TurnResult
	for i, step := range f.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		nowMs += step.AdvanceMs

		switch {
		case step.Register != nil:
			reg.Register(*step.Register)
		case step.Unregister != "":
			reg.Unregister(step.Unregister)
		case step.Activate != "":
			reg.SetActive(step.Activate)
		case step.Dismiss:
			orch.DismissClarification(sess)
		case step.UIAction != nil:
			nowMs += opts.TurnGap.Milliseconds()
			orch.RecordUIAction(sess, *step.UIAction, f.CurrentWorkspace, nowMs)
		case step.Say != "":
			nowMs += opts.TurnGap.Milliseconds()
			res := orch.Dispatch(ctx, orchestrator.RoutingContext{
				Input:            step.Say,
				Session:          sess,
				Snapshot:         reg.BuildTurnSnapshot(),
				NowMs:            nowMs,
				CurrentWorkspace: f.CurrentWorkspace,
				Workspaces:       f.Workspaces,
				Panels:           f.Panels,
			})
			tr := toTurnResult(i+1, step.Say, res)
			tr.History = len(sess.Ledger.History())
			tr.Mismatches = compare(step.Expect, tr)
			results = append(results, tr)
		}
	}
	return results, nil
}

func toTurnResult(step int, input string, res orchestrator.Result) TurnResult {
	tr := TurnResult{
		Step:      step,
		Input:     input,
		TierLabel: res.TierLabel,
		Handled:   res.Handled,
		Options:   len(res.Options),
		Message:   res.Message,
		Reason:    res.Reason,
	}
	if a := res.GroundingAction; a != nil {
		tr.Action = a.Type
		tr.Target = a.Target.Identity()
	}
	return tr
}

// compare lists every expectation the turn missed.
func compare(want *Expectation, got TurnResult) []string {
	if want == nil {
		return nil
	}
	var out []string
	if want.Tier != "" && want.Tier != got.TierLabel {
		out = append(out, fmt.Sprintf("tier: want %s, got %s", want.Tier, got.TierLabel))
	}
	if want.Handled != nil && *want.Handled != got.Handled {
		out = append(out, fmt.Sprintf("handled: want %v, got %v", *want.Handled, got.Handled))
	}
	if want.Action != "" && want.Action != got.Action {
		out = append(out, fmt.Sprintf("action: want %s, got %q", want.Action, got.Action))
	}
	if want.Target != "" && want.Target != got.Target {
		out = append(out, fmt.Sprintf("target: want %s, got %q", want.Target, got.Target))
	}
	if want.Options != nil && *want.Options != got.Options {
		out = append(out, fmt.Sprintf("options: want %d, got %d", *want.Options, got.Options))
	}
	if want.MessageContains != "" && !strings.Contains(got.Message, want.MessageContains) {
		out = append(out, fmt.Sprintf("message: want %q in %q", want.MessageContains, got.Message))
	}
	for _, s := range want.MessageExcludes {
		if strings.Contains(got.Message, s) {
			out = append(out, fmt.Sprintf("message: unexpected %q in %q", s, got.Message))
		}
	}
	if want.History != nil && *want.History != got.History {
		out = append(out, fmt.Sprintf("history: want %d, got %d", *want.History, got.History))
	}
	return out
}

// Summarize aggregates replay results.
func Summarize(results []TurnResult) Summary {
	s := Summary{TotalTurns: len(results), ByTier: make(map[string]int)}
	for _, r := range results {
		if r.Handled {
			s.Handled++
		} else {
			s.Unhandled++
		}
		if !r.OK() {
			s.Mismatches++
		}
		s.ByTier[r.TierLabel]++
	}
	return s
}

// #endregion replay

// #region memory-index

// memoryIndex is a retrieval backend over the fixture's documents. A
// document matches when its title or snippet contains any query word.
type memoryIndex struct {
	docs []retrieval.Hit
}

func newMemoryIndex(docs []Document) *memoryIndex {
	idx := &memoryIndex{docs: make([]retrieval.Hit, len(docs))}
	for i, d := range docs {
		idx.docs[i] = retrieval.Hit{ID: d.ID, Kind: d.Kind, Title: d.Title, Snippet: d.Snippet, Score: d.Score}
	}
	return idx
}

func (m *memoryIndex) Search(_ context.Context, query string, limit int) ([]retrieval.Hit, error) {
	words := strings.Fields(strings.ToLower(query))
	var out []retrieval.Hit
	for _, d := range m.docs {
		text := strings.ToLower(d.Title + " " + d.Snippet)
		for _, w := range words {
			if strings.Contains(text, w) {
				out = append(out, d)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// #endregion memory-index
