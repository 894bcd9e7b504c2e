package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals bad caller input: empty query text or non-positive top_k.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidWeights signals blend weights that do not sum to 1.0.
	ErrInvalidWeights = errors.New("invalid weights")
	// ErrEmptyInput signals embedder input that is empty after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrRecordNotFound signals a missing record.
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmbeddingUnavailable signals a transient embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	// ErrIndexUnavailable signals a transient index backend failure.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrRetrievalUnavailable signals that every weighted signal source failed
	// or came back empty when one was required.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrGenerationUnavailable signals a transient generation provider failure.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrDimensionMismatch signals configuration or version skew between the
	// embedder and the vector index. Ingestion must halt until resolved.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIngestionHalted signals that ingestion is suspended after a
	// dimension mismatch and must be explicitly resumed.
	ErrIngestionHalted = errors.New("ingestion halted")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the observed dimensions.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, index configured for %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionMismatchError{Got: got, Want: want}
}
