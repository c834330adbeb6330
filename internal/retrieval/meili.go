package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// DefaultDocIndex is the Meilisearch index holding navigable documents.
const DefaultDocIndex = "arbiter_documents"

// multiSearcher is the slice of meili.ServiceManager the searcher needs.
type multiSearcher interface {
	MultiSearch(queries *meili.MultiSearchRequest) (*meili.MultiSearchResponse, error)
}

// #region meili
// Meili implements Searcher over a Meilisearch document index with
// title/subtitle fields.
type Meili struct {
	client multiSearcher
	index  string
	log    *zap.Logger
}

// NewMeili creates a Meilisearch client and ensures the index exists. An
// unreachable server is logged, not fatal; searches fail until it recovers.
func NewMeili(url, apiKey, index string, logger *zap.Logger) *Meili {
	if logger == nil {
		logger = zap.NewNop()
	}
	if index == "" {
		index = DefaultDocIndex
	}
	client := meili.New(url, meili.WithAPIKey(apiKey))
	m := &Meili{client: client, index: index, log: logger.Named("meili")}

	if _, err := client.Health(); err != nil {
		m.log.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
		return m
	}
	if _, err := client.CreateIndex(&meili.IndexConfig{Uid: index, PrimaryKey: "id"}); err != nil {
		m.log.Debug("create index (may already exist)", zap.String("index", index), zap.Error(err))
	}
	searchable := []string{"title", "subtitle"}
	if _, err := client.Index(index).UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", zap.String("index", index), zap.Error(err))
	}
	return m
}

// NewMeiliWithClient creates a searcher over an injected client. Used for
// testing without a running server.
func NewMeiliWithClient(client multiSearcher, index string) *Meili {
	if index == "" {
		index = DefaultDocIndex
	}
	return &Meili{client: client, index: index, log: zap.NewNop()}
}

// Search queries the document index with ranking scores enabled.
func (m *Meili) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultConfig().TopK
	}
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID:         m.index,
			Query:            query,
			Limit:            int64(limit),
			ShowRankingScore: true,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	var hits []Hit
	for _, sr := range resp.Results {
		for _, h := range sr.Hits {
			hits = append(hits, Hit{
				ID:      decodeString(h, "id"),
				Kind:    firstNonBlank(decodeString(h, "kind"), "document"),
				Title:   decodeString(h, "title"),
				Snippet: decodeString(h, "subtitle"),
				Score:   decodeFloat(h, "_rankingScore"),
			})
		}
	}
	return hits, nil
}

// #endregion meili

// #region decode
func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFloat(hit meili.Hit, key string) float64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	return 0
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// #endregion decode
