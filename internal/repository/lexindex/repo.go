// Package lexindex adapts the full-text FT index to the engine's contract.
package lexindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/terralab/georag/internal/db"
	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/search/result"
)

const (
	keyPrefix = domain.KeyPrefix + "lex:"
	indexName = "georag-lexical"
)

// store is the consumer interface for the lexical index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo is the lexical index adapter. Scoring is BM25: adding an exact
// query-term occurrence to a document never decreases its score.
type Repo struct {
	store store
}

// New creates a lexical index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Ensure creates the FT index if it does not exist yet.
func (r *Repo) Ensure(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        indexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{{
			Name: "text",
			Type: db.IndexFieldText,
		}},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create lexical index: %w", err)
	}
	return nil
}

// Upsert stores the searchable text for a record id, replacing any
// previous text in place.
func (r *Repo) Upsert(ctx context.Context, id, text string) error {
	if err := r.store.HSet(ctx, key(id), map[string]string{"text": text}); err != nil {
		return fmt.Errorf("upsert text %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Delete removes a record's text. Absent ids are not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("delete text %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Exists reports whether text is indexed for the id.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, key(id))
	if err != nil {
		return false, fmt.Errorf("text exists %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return ok, nil
}

// IDs lists every indexed record id. Used by the reconciliation sweep.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan texts: %w: %w", domain.ErrIndexUnavailable, err)
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix))
	}
	return ids, nil
}

// Query returns up to n lexically relevant records as (record id, score)
// pairs, ordered by descending relevance.
func (r *Repo) Query(ctx context.Context, query string, n int) ([]result.Candidate, error) {
	res, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName: indexName,
		Query:     query,
		TopK:      n,
	})
	if err != nil {
		return nil, fmt.Errorf("bm25 query: %w: %w", domain.ErrIndexUnavailable, err)
	}

	out := make([]result.Candidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, result.Candidate{
			ID:    strings.TrimPrefix(e.Key, keyPrefix),
			Score: e.Score,
		})
	}
	return out, nil
}

func key(id string) string { return keyPrefix + id }
