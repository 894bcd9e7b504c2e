package hybrid

import (
	"context"

	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/record"
	"github.com/terralab/georag/internal/domain/search/result"
)

// VectorIndex retrieves nearest neighbors for a query embedding.
type VectorIndex interface {
	Query(ctx context.Context, vec []float32, n int) ([]result.Candidate, error)
}

// LexicalIndex retrieves lexically relevant records for query text.
type LexicalIndex interface {
	Query(ctx context.Context, query string, n int) ([]result.Candidate, error)
}

// RecordStore resolves record ids to display fields.
type RecordStore interface {
	GetMulti(ctx context.Context, ids []string) (map[string]record.Record, []string, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
