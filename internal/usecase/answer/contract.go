package answer

import (
	"context"

	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/search/request"
	"github.com/terralab/georag/internal/domain/search/result"
)

// Searcher retrieves context records for a question.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, weights request.Weights) ([]result.Result, error)
}

// Generator synthesizes the answer text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (domain.GenerationResult, error)
}
