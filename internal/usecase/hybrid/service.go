// Package hybrid implements the hybrid query engine: it blends vector
// similarity and lexical relevance into one deterministically ranked
// result set.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/search/request"
	"github.com/terralab/georag/internal/domain/search/result"
	"github.com/terralab/georag/internal/logger"
	"github.com/terralab/georag/internal/metrics"
)

// Config tunes candidate fan-out and per-stage timeouts.
type Config struct {
	// FanOutFactor over-fetches candidates per signal: a record strong in
	// one signal may sit far down the other signal's ranking.
	FanOutFactor int
	// MinCandidates is the fan-out floor for small top_k values.
	MinCandidates int
	// StageTimeout bounds each index query; an expired stage degrades to an
	// empty candidate set instead of failing the request.
	StageTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.FanOutFactor <= 0 {
		c.FanOutFactor = 5
	}
	if c.MinCandidates <= 0 {
		c.MinCandidates = 50
	}
	if c.StageTimeout <= 0 {
		c.StageTimeout = 2 * time.Second
	}
}

// Service is the hybrid query engine. The query path mutates no shared
// state, so one Service handles unlimited concurrent searches.
type Service struct {
	vec     VectorIndex
	lex     LexicalIndex
	records RecordStore
	embed   Embedder
	cfg     Config
}

// New creates a hybrid query engine.
func New(vec VectorIndex, lex LexicalIndex, records RecordStore, embed Embedder, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{vec: vec, lex: lex, records: records, embed: embed, cfg: cfg}
}

// Search runs the hybrid retrieval pipeline and returns at most topK
// results ordered by descending blended score, ties broken by ascending
// record id. For a fixed index state the output is a pure function of the
// arguments.
func (s *Service) Search(
	ctx context.Context, query string, topK int, weights request.Weights,
) ([]result.Result, error) {
	req, err := request.New(query, topK, weights)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	return s.search(ctx, &req)
}

func (s *Service) search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	log := logger.FromContext(ctx)
	w := req.Weights()

	n := req.TopK() * s.cfg.FanOutFactor
	if n < s.cfg.MinCandidates {
		n = s.cfg.MinCandidates
	}

	var queryVec []float32
	if w.Vector() > 0 {
		embRes, err := s.embed.Embed(ctx, req.Query())
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("search: %w", ctx.Err())
			}
			return nil, fmt.Errorf("embed query: %w", err)
		}
		queryVec = embRes.Embedding
	}

	var (
		vecCands, lexCands []result.Candidate
		vecErr, lexErr     error
	)

	// The two index queries are independent; issue both at once and wait.
	var g errgroup.Group
	if w.Vector() > 0 {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
			defer cancel()
			vecCands, vecErr = s.vec.Query(sctx, queryVec, n)
			return nil
		})
	}
	if w.Lexical() > 0 {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
			defer cancel()
			lexCands, lexErr = s.lex.Query(sctx, req.Query(), n)
			return nil
		})
	}
	_ = g.Wait()

	// The caller's deadline beats stage-level degradation: partial results
	// after the caller gave up would be silently stale.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("search: %w", ctx.Err())
	}

	if vecErr != nil {
		if errors.Is(vecErr, domain.ErrDimensionMismatch) {
			return nil, vecErr
		}
		log.Warn("vector signal degraded", zap.Error(vecErr))
		metrics.SignalDegradedTotal.WithLabelValues("vector").Inc()
		vecCands = nil
	}
	if lexErr != nil {
		log.Warn("lexical signal degraded", zap.Error(lexErr))
		metrics.SignalDegradedTotal.WithLabelValues("lexical").Inc()
		lexCands = nil
	}

	// A failed weighted signal is tolerable only while the other signal
	// still produced candidates.
	if vecErr != nil && w.Vector() > 0 && len(lexCands) == 0 {
		return nil, fmt.Errorf("vector signal failed, no lexical candidates: %w", domain.ErrRetrievalUnavailable)
	}
	if lexErr != nil && w.Lexical() > 0 && len(vecCands) == 0 {
		return nil, fmt.Errorf("lexical signal failed, no vector candidates: %w", domain.ErrRetrievalUnavailable)
	}

	merged := mergeBlend(vecCands, lexCands, w, req.TopK())
	if len(merged) == 0 {
		return nil, nil // nothing matched; not an error
	}

	return s.resolve(ctx, merged)
}

// resolve attaches record display fields and drops ids the record store no
// longer has. A dangling index entry is an ingestion inconsistency, never a
// search failure.
func (s *Service) resolve(ctx context.Context, merged []result.Result) ([]result.Result, error) {
	ids := make([]string, len(merged))
	for i := range merged {
		ids[i] = merged[i].ID()
	}

	recs, missing, err := s.records.GetMulti(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve records: %w", err)
	}
	if len(missing) > 0 {
		logger.FromContext(ctx).Warn("index entries without records dropped",
			zap.Strings("record_ids", missing))
		metrics.IndexGapsTotal.Add(float64(len(missing)))
	}

	out := make([]result.Result, 0, len(merged))
	for _, r := range merged {
		rec, ok := recs[r.ID()]
		if !ok {
			continue
		}
		out = append(out, r.WithRecord(rec))
	}
	return out, nil
}
