package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/terralab/georag/internal/logger"
	"github.com/terralab/georag/internal/metrics"
)

// Report summarizes one reconciliation sweep.
type Report struct {
	Checked        int `json:"checked"`
	RepairedText   int `json:"repaired_text"`
	RepairedVector int `json:"repaired_vector"`
	Orphans        int `json:"orphans"`
	Failed         int `json:"failed"`
}

// Reconcile sweeps the three stores back into agreement. The record store is
// the source of truth: records missing an index entry are re-indexed, index
// entries without a record are removed. Repair failures are counted, logged,
// and skipped; the sweep continues so one bad record cannot wedge it.
//
// Vector repairs re-embed, so a sweep while ingestion is halted skips them
// rather than reproduce the mismatch that caused the halt.
func (s *Service) Reconcile(ctx context.Context) (Report, error) {
	log := logger.FromContext(ctx)
	var rep Report

	ids, err := s.records.IDs(ctx)
	if err != nil {
		return rep, fmt.Errorf("list records: %w", err)
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return rep, fmt.Errorf("reconcile: %w", ctx.Err())
		}
		rep.Checked++
		if err := s.repair(ctx, id, &rep); err != nil {
			rep.Failed++
			log.Warn("reconcile repair failed", zap.String("record_id", id), zap.Error(err))
		}
	}

	for _, list := range []func(context.Context) ([]string, error){s.lex.IDs, s.vec.IDs} {
		indexed, err := list(ctx)
		if err != nil {
			return rep, fmt.Errorf("list index entries: %w", err)
		}
		for _, id := range indexed {
			if _, ok := known[id]; ok {
				continue
			}
			if err := s.removeOrphan(ctx, id); err != nil {
				rep.Failed++
				log.Warn("orphan removal failed", zap.String("record_id", id), zap.Error(err))
				continue
			}
			rep.Orphans++
			metrics.ReconcileRepairsTotal.WithLabelValues("orphan").Inc()
		}
	}

	log.Info("reconcile sweep finished",
		zap.Int("checked", rep.Checked),
		zap.Int("repaired_text", rep.RepairedText),
		zap.Int("repaired_vector", rep.RepairedVector),
		zap.Int("orphans", rep.Orphans),
		zap.Int("failed", rep.Failed))
	return rep, nil
}

func (s *Service) repair(ctx context.Context, id string, rep *Report) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	hasText, err := s.lex.Exists(ctx, id)
	if err != nil {
		return err
	}
	hasVec, err := s.vec.Exists(ctx, id)
	if err != nil {
		return err
	}
	if hasText && hasVec {
		return nil
	}

	rec, err := s.records.Get(ctx, id)
	if err != nil {
		// Deleted between the scan and the check.
		return nil
	}

	if !hasText {
		if err := s.lex.Upsert(ctx, id, rec.SearchText()); err != nil {
			return err
		}
		rep.RepairedText++
		metrics.ReconcileRepairsTotal.WithLabelValues("missing_text").Inc()
	}

	if !hasVec && !s.halted.Load() {
		embRes, err := s.embed.Embed(ctx, rec.SearchText())
		if err != nil {
			return err
		}
		if err := s.vec.Upsert(ctx, id, embRes.Embedding); err != nil {
			return err
		}
		rep.RepairedVector++
		metrics.ReconcileRepairsTotal.WithLabelValues("missing_vector").Inc()
	}
	return nil
}

func (s *Service) removeOrphan(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	// The record may have been ingested since the index scan.
	if ok, err := s.records.Exists(ctx, id); err != nil || ok {
		return err
	}
	if err := s.lex.Delete(ctx, id); err != nil {
		return err
	}
	return s.vec.Delete(ctx, id)
}
