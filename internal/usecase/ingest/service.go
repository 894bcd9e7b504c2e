// Package ingest owns the tri-store write path: a record is not visible to
// search until its hash, its lexical text, and its vector all landed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/terralab/georag/internal/domain"
	"github.com/terralab/georag/internal/domain/record"
	"github.com/terralab/georag/internal/keylock"
	"github.com/terralab/georag/internal/logger"
	"github.com/terralab/georag/internal/metrics"
)

// Service coordinates writes across the record store and both indexes.
//
// Writes for the same record id are serialized through a sharded lock table;
// writes for different ids run in parallel. A dimension mismatch halts all
// further ingestion until Resume is called: every mismatched vector after the
// first would corrupt the index the same way, so retrying is never the answer.
type Service struct {
	records RecordStore
	lex     LexicalIndex
	vec     VectorIndex
	embed   Embedder
	locks   *keylock.KeyLock
	halted  atomic.Bool
}

// New creates an ingestion service. lockShards <= 0 uses the default shard count.
func New(records RecordStore, lex LexicalIndex, vec VectorIndex, embed Embedder, lockShards int) *Service {
	return &Service{
		records: records,
		lex:     lex,
		vec:     vec,
		embed:   embed,
		locks:   keylock.New(lockShards),
	}
}

// Ingest writes one record to all three stores. The record hash lands first,
// then the lexical text, then the vector; on a mid-saga failure the stores
// are compensated back to their pre-push state: a first-time ingest leaves
// no trace, a failed update restores the previous record version.
//
// Compensation is best-effort. A compensation failure leaves the stores
// divergent, which search tolerates (dangling index entries are dropped at
// query time) and the reconciliation sweep repairs.
func (s *Service) Ingest(ctx context.Context, rec record.Record) error {
	if s.halted.Load() {
		return fmt.Errorf("record %s rejected: %w", rec.ID(), domain.ErrIngestionHalted)
	}

	log := logger.FromContext(ctx)
	id := rec.ID()

	embRes, err := s.embed.Embed(ctx, rec.SearchText())
	if err != nil {
		metrics.RecordsIngestedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("embed record %s: %w", id, err)
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	// Snapshot the current version so a failed update can be rolled back to
	// it instead of erasing the record.
	var prev *record.Record
	switch cur, err := s.records.Get(ctx, id); {
	case err == nil:
		prev = &cur
	case !errors.Is(err, domain.ErrRecordNotFound):
		metrics.RecordsIngestedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("read current record %s: %w", id, err)
	}

	if err := s.records.Put(ctx, rec); err != nil {
		metrics.RecordsIngestedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("store record %s: %w", id, err)
	}

	if err := s.lex.Upsert(ctx, id, rec.SearchText()); err != nil {
		s.compensate(ctx, id, prev, false)
		metrics.RecordsIngestedTotal.WithLabelValues("rolled_back").Inc()
		return fmt.Errorf("index text %s: %w", id, err)
	}

	if err := s.vec.Upsert(ctx, id, embRes.Embedding); err != nil {
		s.compensate(ctx, id, prev, true)
		metrics.RecordsIngestedTotal.WithLabelValues("rolled_back").Inc()
		if errors.Is(err, domain.ErrDimensionMismatch) {
			s.halt(log, id, err)
			return fmt.Errorf("index vector %s: %w", id, err)
		}
		return fmt.Errorf("index vector %s: %w", id, err)
	}

	metrics.RecordsIngestedTotal.WithLabelValues("success").Inc()
	return nil
}

// Delete removes a record from all three stores: indexes first, the record
// hash last. If a deletion fails part-way the record hash is still present,
// so the survivors are orphan index entries at worst, which search drops.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if err := s.vec.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vector %s: %w", id, err)
	}
	if err := s.lex.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete text %s: %w", id, err)
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	metrics.RecordsDeletedTotal.Inc()
	return nil
}

// Halted reports whether ingestion is suspended.
func (s *Service) Halted() bool { return s.halted.Load() }

// Resume lifts the ingestion halt after the dimension skew has been fixed
// (embedder reconfigured or index rebuilt).
func (s *Service) Resume() {
	s.halted.Store(false)
	metrics.IngestionHalted.Set(0)
}

func (s *Service) halt(log *zap.Logger, id string, err error) {
	if s.halted.Swap(true) {
		return
	}
	metrics.IngestionHalted.Set(1)
	log.Error("ingestion halted on dimension mismatch",
		zap.String("record_id", id), zap.Error(err))
}

// compensate rolls the saga steps completed before a failure back to the
// pre-push state. When the id already existed, the previous record version
// is written back; otherwise the partial writes are deleted. Errors are
// logged, not returned: the ingest already failed and the sweep cleans up.
func (s *Service) compensate(ctx context.Context, id string, prev *record.Record, lexWritten bool) {
	log := logger.FromContext(ctx)

	if prev != nil {
		if err := s.records.Put(ctx, *prev); err != nil {
			log.Warn("compensation failed, record left at new version",
				zap.String("record_id", id), zap.Error(err))
		}
		if lexWritten {
			if err := s.lex.Upsert(ctx, id, prev.SearchText()); err != nil {
				log.Warn("compensation failed, lexical entry left at new version",
					zap.String("record_id", id), zap.Error(err))
			}
		}
		return
	}

	if lexWritten {
		if err := s.lex.Delete(ctx, id); err != nil {
			log.Warn("compensation failed, lexical entry left behind",
				zap.String("record_id", id), zap.Error(err))
		}
	}
	if err := s.records.Delete(ctx, id); err != nil {
		log.Warn("compensation failed, record left behind",
			zap.String("record_id", id), zap.Error(err))
	}
}
