package ingest

import (
	"context"

	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/record"
)

// RecordStore persists catalog records.
type RecordStore interface {
	Put(ctx context.Context, rec record.Record) error
	Get(ctx context.Context, id string) (record.Record, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	IDs(ctx context.Context) ([]string, error)
}

// VectorIndex writes record embeddings.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, vec []float32) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	IDs(ctx context.Context) ([]string, error)
}

// LexicalIndex writes record search text.
type LexicalIndex interface {
	Upsert(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	IDs(ctx context.Context) ([]string, error)
}

// Embedder vectorizes record text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
