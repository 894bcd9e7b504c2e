// Package answer composes retrieval and generation into grounded answers
// over the catalog: retrieve context records, prompt the model with them,
// return the answer with its sources.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/terralab/georag/internal/domain/search/request"
	"github.com/terralab/georag/internal/domain/search/result"
	"github.com/terralab/georag/internal/logger"
	"github.com/terralab/georag/internal/metrics"
)

const systemPrompt = "You are a geodata catalog assistant. Answer the question " +
	"using only the catalog records provided in the context. Cite the record id " +
	"in square brackets after each claim, e.g. [rec-42]. If the context does not " +
	"contain the answer, say so plainly."

// Config tunes how much retrieved context reaches the model.
type Config struct {
	// ContextDocs is how many top results are folded into the prompt.
	ContextDocs int
	// AbstractLimit truncates long abstracts so one verbose record cannot
	// crowd the others out of the context window.
	AbstractLimit int
}

func (c *Config) applyDefaults() {
	if c.ContextDocs <= 0 {
		c.ContextDocs = 5
	}
	if c.AbstractLimit <= 0 {
		c.AbstractLimit = 300
	}
}

// Source is one context record cited to the caller.
type Source struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Answer is the synthesized reply plus the records it was grounded on.
// Degraded means retrieval succeeded but generation did not: the sources are
// still served so the caller gets the catalog hits even without prose.
type Answer struct {
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Degraded bool     `json:"degraded"`

	SearchMs     int64 `json:"search_ms"`
	GenerationMs int64 `json:"generation_ms"`
	TotalMs      int64 `json:"total_ms"`
}

// Service is the RAG orchestrator.
type Service struct {
	search Searcher
	gen    Generator
	cfg    Config
}

// New creates an answer service.
func New(search Searcher, gen Generator, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{search: search, gen: gen, cfg: cfg}
}

// Ask answers a question grounded on the catalog. Retrieval errors are the
// caller's problem; generation errors degrade to a sources-only answer.
func (s *Service) Ask(
	ctx context.Context, question string, topK int, weights request.Weights,
) (Answer, error) {
	if topK <= 0 {
		topK = s.cfg.ContextDocs
	}

	start := time.Now()
	results, err := s.search.Search(ctx, question, topK, weights)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	ans := Answer{Sources: toSources(results), SearchMs: time.Since(start).Milliseconds()}
	if len(results) == 0 {
		ans.Text = "No matching records were found in the catalog."
		ans.TotalMs = time.Since(start).Milliseconds()
		return ans, nil
	}

	genStart := time.Now()
	genRes, err := s.gen.Generate(ctx, systemPrompt, s.buildPrompt(question, results))
	ans.GenerationMs = time.Since(genStart).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			return Answer{}, fmt.Errorf("generate answer: %w", ctx.Err())
		}
		logger.FromContext(ctx).Warn("generation failed, serving sources only", zap.Error(err))
		metrics.AnswersDegradedTotal.Inc()
		ans.Degraded = true
		ans.TotalMs = time.Since(start).Milliseconds()
		return ans, nil
	}

	ans.Text = strings.TrimSpace(genRes.Text)
	ans.TotalMs = time.Since(start).Milliseconds()
	return ans, nil
}

// buildPrompt folds the top results into a numbered context block.
func (s *Service) buildPrompt(question string, results []result.Result) string {
	n := s.cfg.ContextDocs
	if n > len(results) {
		n = len(results)
	}

	var b strings.Builder
	b.WriteString("Context records:\n\n")
	for i := 0; i < n; i++ {
		r := &results[i]
		fmt.Fprintf(&b, "[%s] %s\n", r.ID(), recTitle(r))
		if abs := recAbstract(r, s.cfg.AbstractLimit); abs != "" {
			b.WriteString(abs)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func toSources(results []result.Result) []Source {
	out := make([]Source, 0, len(results))
	for i := range results {
		out = append(out, Source{
			ID:    results[i].ID(),
			Title: recTitle(&results[i]),
			Score: results[i].Score(),
		})
	}
	return out
}

func recTitle(r *result.Result) string {
	if rec := r.Record(); rec != nil {
		return rec.Title()
	}
	return ""
}

func recAbstract(r *result.Result, limit int) string {
	rec := r.Record()
	if rec == nil {
		return ""
	}
	abs := rec.Abstract()
	if len(abs) <= limit {
		return abs
	}
	// Truncate on a rune boundary; UTF-8 abstracts are common in this corpus.
	runes := []rune(abs)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}
