package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// #region open
// OpenPostgres opens the corpus database through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(8)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
// #endregion open

// #region pgcorpus
// corpusQuery ranks corpus_items rows with plainto_tsquery/ts_rank and cuts
// a ts_headline snippet. corpus_items carries a generated fts tsvector.
const corpusQuery = `SELECT id, kind, title,
	ts_headline('english', coalesce(body, ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
	ts_rank(fts, plainto_tsquery('english', $1)) AS rank
FROM corpus_items
WHERE fts @@ plainto_tsquery('english', $1)
ORDER BY rank DESC
LIMIT $2`

// PgCorpus implements Searcher using PostgreSQL full-text search over the
// cross-corpus table.
type PgCorpus struct {
	db *sql.DB
}

// NewPgCorpus creates a PostgreSQL FTS searcher.
func NewPgCorpus(db *sql.DB) *PgCorpus {
	return &PgCorpus{db: db}
}

// Search runs the ranked full-text query.
func (p *PgCorpus) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultConfig().TopK
	}

	rows, err := p.db.QueryContext(ctx, corpusQuery, query, limit)
	if err != nil {
		return nil, fmt.Errorf("corpus search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Kind, &h.Title, &h.Snippet, &h.Score); err != nil {
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
// #endregion pgcorpus
