package retrieval

import "context"

// #region config
// Config holds thresholds and limits for the 3-gate retrieval pipeline.
type Config struct {
	MinQueryTokens int     `yaml:"min_query_tokens"` // Gate 1: content tokens required to search
	MinScore       float64 `yaml:"min_score"`        // Gate 2: min backend relevance score
	TopK           int     `yaml:"top_k"`            // Max hits requested and offered as options
	MaxTitleLen    int     `yaml:"max_title_len"`    // Gate 3: longer titles are dropped
	AutoOpenScore  float64 `yaml:"auto_open_score"`  // top hit at or above this opens directly
	AutoOpenMargin float64 `yaml:"auto_open_margin"` // required lead over the runner-up
}

// DefaultConfig returns sensible defaults for retrieval gating.
func DefaultConfig() Config {
	return Config{
		MinQueryTokens: 1,
		MinScore:       0.3,
		TopK:           5,
		MaxTitleLen:    200,
		AutoOpenScore:  0.85,
		AutoOpenMargin: 0.15,
	}
}
// #endregion config

// #region hit
// Hit is one search result from a backend.
type Hit struct {
	ID      string
	Kind    string // "document" for the document index; corpus rows carry their own
	Title   string
	Snippet string
	Score   float64
}
// #endregion hit

// #region gate-result
// GateResult captures the outcome of the 3-gate retrieval pipeline.
type GateResult struct {
	Gate1Passed bool   // query shape check passed
	Gate2Count  int    // hits at or above MinScore
	Gate3Count  int    // hits passing consistency check
	Retrieved   []Hit  // final hits after all gates, best first
	Reason      string // human-readable explanation
}
// #endregion gate-result

// #region searcher
// Searcher is a retrieval backend. Hits come back best first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}
// #endregion searcher
