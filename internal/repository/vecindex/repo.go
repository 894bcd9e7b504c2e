// Package vecindex adapts the vector FT index to the engine's contract.
package vecindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/terralab/georag/internal/db"
	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/search/result"
)

const (
	keyPrefix = domain.KeyPrefix + "vec:"
	indexName = "georag-vectors"
)

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig tunes the HNSW graph for the redis driver.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo is the vector index adapter. The embedding dimension is fixed at
// construction; any vector of a different length is a configuration or
// version-skew bug surfaced as domain.ErrDimensionMismatch.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates a vector index repository for the given embedding dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW sets HNSW build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Dimension returns the configured embedding dimension.
func (r *Repo) Dimension() int { return r.dim }

// Ensure creates the FT index if it does not exist yet.
func (r *Repo) Ensure(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        indexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{{
			Name:              "vector",
			Type:              db.IndexFieldVector,
			VectorAlgo:        db.VectorHNSW,
			VectorDim:         r.dim,
			VectorDistance:    db.DistanceCosine,
			VectorM:           r.hnsw.M,
			VectorEFConstruct: r.hnsw.EFConstruct,
		}},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create vector index: %w", err)
	}
	return nil
}

// Upsert stores the vector for a record id, atomically replacing any
// previous vector (a single HSET overwrites the field in place).
func (r *Repo) Upsert(ctx context.Context, id string, vec []float32) error {
	if len(vec) != r.dim {
		return domain.NewDimensionMismatch(len(vec), r.dim)
	}
	if err := r.store.HSet(ctx, key(id), map[string]string{"vector": vectorToBytes(vec)}); err != nil {
		return fmt.Errorf("upsert vector %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Delete removes a record's vector. Absent ids are not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("delete vector %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Exists reports whether a vector is indexed for the id.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, key(id))
	if err != nil {
		return false, fmt.Errorf("vector exists %s: %w: %w", id, domain.ErrIndexUnavailable, err)
	}
	return ok, nil
}

// IDs lists every indexed record id. Used by the reconciliation sweep.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan vectors: %w: %w", domain.ErrIndexUnavailable, err)
	}

	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix))
	}
	return ids, nil
}

// Query returns up to n nearest neighbors as (record id, similarity) pairs,
// ordered by descending similarity.
func (r *Repo) Query(ctx context.Context, vec []float32, n int) ([]result.Candidate, error) {
	if len(vec) != r.dim {
		return nil, domain.NewDimensionMismatch(len(vec), r.dim)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vec,
		K:            n,
		ReturnFields: []string{"__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn query: %w: %w", domain.ErrIndexUnavailable, err)
	}

	return toCandidates(res), nil
}

func toCandidates(res *db.SearchResult) []result.Candidate {
	out := make([]result.Candidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, result.Candidate{
			ID:    strings.TrimPrefix(e.Key, keyPrefix),
			Score: e.Score,
		})
	}
	return out
}

func key(id string) string { return keyPrefix + id }

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
