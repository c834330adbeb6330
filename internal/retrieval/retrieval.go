// Package retrieval looks chat input up in the document index and the wider
// corpus, behind a gated pipeline that refuses weak or inconsistent hits.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/clarify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/classify"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/orchestrator"
	"github.com/danielpatrickdp/intent-arbiter/go-controller/internal/trace"
)

// #region retriever
// Retriever orchestrates triple-gated retrieval over one backend.
type Retriever struct {
	search Searcher
	config Config
	label  string
	log    *zap.Logger
}

// NewRetriever creates a Retriever over a backend. label names the backend
// in route results and logs.
func NewRetriever(search Searcher, config Config, label string, logger *zap.Logger) *Retriever {
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{search: search, config: config, label: label, log: logger.Named("retrieval." + label)}
}

// #endregion retriever

// #region retrieve
// Retrieve runs the 3-gate retrieval pipeline:
//  1. Gate 1 (shape): skip control phrases and inputs without enough content tokens
//  2. Gate 2 (score): keep hits at or above MinScore
//  3. Gate 3 (consistency): non-empty title, bounded length, no duplicate IDs,
//     and at least one content token shared with the query
func (r *Retriever) Retrieve(ctx context.Context, input string) (GateResult, error) {
	result := GateResult{}

	tokens := classify.ContentTokens(input)
	if IsControlPhrase(input) || len(tokens) < max(r.config.MinQueryTokens, 1) {
		result.Reason = fmt.Sprintf("gate1: %d content tokens, need %d", len(tokens), max(r.config.MinQueryTokens, 1))
		return result, nil
	}
	result.Gate1Passed = true

	hits, err := r.search.Search(ctx, strings.Join(tokens, " "), r.config.TopK)
	if err != nil {
		return result, fmt.Errorf("retrieval search: %w", err)
	}

	var gate2 []Hit
	for _, h := range hits {
		if h.Score >= r.config.MinScore {
			gate2 = append(gate2, h)
		}
	}
	result.Gate2Count = len(gate2)
	if result.Gate2Count == 0 {
		result.Reason = "gate2: no results above score threshold"
		return result, nil
	}

	gate3 := r.consistencyCheck(gate2, tokens)
	result.Gate3Count = len(gate3)
	result.Retrieved = gate3

	if result.Gate3Count == 0 {
		result.Reason = "gate3: all results failed consistency check"
	} else {
		result.Reason = fmt.Sprintf("retrieved %d hits (gate2=%d, gate3=%d)",
			result.Gate3Count, result.Gate2Count, result.Gate3Count)
	}
	return result, nil
}

// #endregion retrieve

// #region consistency-check
// consistencyCheck validates hits against basic constraints:
//   - Non-empty title
//   - Title within MaxTitleLen
//   - No duplicate IDs
//   - Title or snippet shares a content token with the query
func (r *Retriever) consistencyCheck(hits []Hit, queryTokens []string) []Hit {
	seen := make(map[string]bool)
	var valid []Hit

	for _, h := range hits {
		if strings.TrimSpace(h.Title) == "" {
			continue
		}
		if r.config.MaxTitleLen > 0 && len(h.Title) > r.config.MaxTitleLen {
			continue
		}
		if seen[h.ID] {
			continue
		}
		if classify.SharedTokens(queryTokens, classify.ContentTokens(h.Title+" "+h.Snippet)) == 0 {
			continue
		}
		seen[h.ID] = true
		valid = append(valid, h)
	}

	return valid
}

// #endregion consistency-check

// #region route
// Route turns retrieval into a dispatcher answer: a clear winner opens
// directly, several plausible hits become options, nothing declines.
func (r *Retriever) Route(ctx context.Context, req orchestrator.RouteRequest) (orchestrator.RouteResult, error) {
	gr, err := r.Retrieve(ctx, req.Input)
	if err != nil {
		return orchestrator.RouteResult{}, err
	}
	r.log.Debug("retrieve", zap.String("reason", gr.Reason), zap.Int("hits", gr.Gate3Count))
	if len(gr.Retrieved) == 0 {
		return orchestrator.RouteResult{}, nil
	}

	top := gr.Retrieved[0]
	if r.clearWinner(gr.Retrieved) {
		return orchestrator.RouteResult{
			Handled:   true,
			TierLabel: r.label,
			Action: &orchestrator.GroundingAction{
				Type:   orchestrator.ActionOpenDocument,
				Target: trace.Target{Kind: kindOr(top.Kind), ID: top.ID, Name: top.Title},
			},
			Message: fmt.Sprintf("Opening %q.", top.Title),
		}, nil
	}

	opts := make([]clarify.Option, len(gr.Retrieved))
	for i, h := range gr.Retrieved {
		opts[i] = clarify.Option{ID: h.ID, Label: h.Title, Kind: kindOr(h.Kind)}
	}
	return orchestrator.RouteResult{
		Handled:   true,
		TierLabel: r.label,
		Options:   opts,
		Message:   fmt.Sprintf("I found %d possible matches. Which one?", len(opts)),
	}, nil
}

func (r *Retriever) clearWinner(hits []Hit) bool {
	if len(hits) == 1 {
		return true
	}
	return hits[0].Score >= r.config.AutoOpenScore && hits[0].Score-hits[1].Score >= r.config.AutoOpenMargin
}

func kindOr(kind string) string {
	if kind == "" {
		return "document"
	}
	return kind
}

// #endregion route

// #region adapters
// Docs adapts a Retriever to orchestrator.DocRetriever.
type Docs struct{ *Retriever }

// RetrieveDocs looks the input up in the document index.
func (d Docs) RetrieveDocs(ctx context.Context, req orchestrator.RouteRequest) (orchestrator.RouteResult, error) {
	return d.Route(ctx, req)
}

// Corpus adapts a Retriever to orchestrator.CrossCorpusRetriever.
type Corpus struct{ *Retriever }

// RetrieveCrossCorpus searches the wider corpus.
func (c Corpus) RetrieveCrossCorpus(ctx context.Context, req orchestrator.RouteRequest) (orchestrator.RouteResult, error) {
	return c.Route(ctx, req)
}

// #endregion adapters
