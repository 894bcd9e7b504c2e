// Package request holds the validated hybrid search request.
package request

import (
	"fmt"
	"math"
	"strings"

	"github.com/terralab/georag/internal/domain"
)

// WeightTolerance is the allowed deviation of the weight sum from 1.0.
const WeightTolerance = 1e-6

// Weights is the blend ratio between the two retrieval signals.
type Weights struct {
	vector  float64
	lexical float64
}

// NewWeights creates a validated weight pair. Both must lie in [0,1] and
// sum to 1.0 within WeightTolerance.
func NewWeights(vector, lexical float64) (Weights, error) {
	w := Weights{vector: vector, lexical: lexical}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

// Validate checks the weight pair invariants.
func (w Weights) Validate() error {
	if w.vector < 0 || w.vector > 1 || w.lexical < 0 || w.lexical > 1 {
		return fmt.Errorf("%w: weights must be in [0,1], got vector=%g lexical=%g",
			domain.ErrInvalidWeights, w.vector, w.lexical)
	}
	if math.Abs(w.vector+w.lexical-1.0) > WeightTolerance {
		return fmt.Errorf("%w: vector=%g + lexical=%g must sum to 1.0",
			domain.ErrInvalidWeights, w.vector, w.lexical)
	}
	return nil
}

// DefaultWeights returns the product's stated hybrid ratio: 0.70 vector, 0.30 lexical.
func DefaultWeights() Weights {
	return Weights{vector: 0.70, lexical: 0.30}
}

// Vector returns the semantic signal weight.
func (w Weights) Vector() float64 { return w.vector }

// Lexical returns the lexical signal weight.
func (w Weights) Lexical() float64 { return w.lexical }

// Request is a validated hybrid search request.
type Request struct {
	query   string
	topK    int
	weights Weights
}

// New creates a search request. The query must be non-empty after trimming
// and topK must be positive.
func New(query string, topK int, weights Weights) (Request, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Request{}, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		return Request{}, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}
	if err := weights.Validate(); err != nil {
		return Request{}, err
	}
	return Request{query: q, topK: topK, weights: weights}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum result count.
func (r *Request) TopK() int { return r.topK }

// Weights returns the blend weights.
func (r *Request) Weights() Weights { return r.weights }
