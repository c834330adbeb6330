package orchestrator

import (
	"context"
	"time"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/classify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/logging"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/resolver"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/snapshot"
)

// #region fakes

type fakeNouns struct {
	routes map[string]RouteResult
	calls  []RouteRequest
	err    error
}

func (f *fakeNouns) Route(_ context.Context, req RouteRequest) (RouteResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return RouteResult{}, f.err
	}
	return f.routes[classify.Normalize(req.Input)], nil
}

type fakeRetriever struct {
	res   RouteResult
	err   error
	calls int
}

func (f *fakeRetriever) RetrieveDocs(_ context.Context, _ RouteRequest) (RouteResult, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeRetriever) RetrieveCrossCorpus(_ context.Context, _ RouteRequest) (RouteResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeSelection struct {
	calls   []int
	decline bool
}

func (f *fakeSelection) HandleSelection(_ context.Context, _ clarify.Option, index int) (bool, error) {
	f.calls = append(f.calls, index)
	return !f.decline, nil
}

type fakeFallback struct {
	enabled bool
	res     FallbackResult
	err     error
	calls   int
}

func (f *fakeFallback) ClarificationEnabled() bool { return f.enabled }
func (f *fakeFallback) GroundingEnabled() bool     { return f.enabled }

func (f *fakeFallback) ResolveClarification(_ context.Context, _ RouteRequest) (FallbackResult, error) {
	f.calls++
	return f.res, f.err
}

func (f *fakeFallback) Ground(_ context.Context, _ RouteRequest) (FallbackResult, error) {
	f.calls++
	return f.res, f.err
}

// buggyResolver acts on every intent, including semantic ones.
type buggyResolver struct{}

func (buggyResolver) Resolve(_ resolver.Intent, _ resolver.Context) resolver.Resolution {
	return resolver.Resolution{Success: true, Action: resolver.ActionNavigateWorkspace, Message: "navigating away"}
}

type fakeDecisions struct {
	entries []logging.DecisionEntry
}

func (f *fakeDecisions) LogDecision(_ context.Context, e logging.DecisionEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

// #endregion

// #region fixtures

var listOptions = []clarify.Option{
	{ID: "a", Label: "Alpha Notes", Kind: "doc"},
	{ID: "b", Label: "Beta Notes", Kind: "doc"},
	{ID: "c", Label: "Gamma Report", Kind: "doc"},
}

var recentItems = []snapshot.Item{
	{ID: "i1", Label: "Kickoff agenda"},
	{ID: "i2", Label: "Design review"},
	{ID: "i3", Label: "Retro notes"},
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func allFeatures() Features {
	return Features{FocusLatch: true, SemanticAnswers: true, LLMFallback: true}
}

func openRecentRoute() RouteResult {
	return RouteResult{
		Handled:   true,
		TierLabel: "known_noun",
		Action: &GroundingAction{
			Type:   ActionOpenPanel,
			Target: targetPanel("recent", "Recent"),
		},
	}
}

func openRecentWidgetRoute() RouteResult {
	return RouteResult{
		Handled: true,
		Action: &GroundingAction{
			Type:     ActionOpenWidget,
			Target:   targetWidget("w-recent", "Recent"),
			WidgetID: "w-recent",
		},
	}
}

// #endregion
