package ingest

import (
	"context"
	"testing"

	"github.com/terralab/georag/internal/domain"
)

func TestReconcile_Consistent_NoRepairs(t *testing.T) {
	f := newFixture()
	if err := f.svc.Ingest(context.Background(), mustRecord(t, "rec-1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	rep, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if rep.Checked != 1 || rep.RepairedText != 0 || rep.RepairedVector != 0 || rep.Orphans != 0 {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestReconcile_MissingVector_Reindexed(t *testing.T) {
	f := newFixture()
	if err := f.svc.Ingest(context.Background(), mustRecord(t, "rec-1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	delete(f.vec.vectors, "rec-1")

	rep, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if rep.RepairedVector != 1 {
		t.Errorf("expected 1 vector repair, got %+v", rep)
	}
	if _, ok := f.vec.vectors["rec-1"]; !ok {
		t.Error("vector not restored")
	}
}

func TestReconcile_MissingText_Reindexed(t *testing.T) {
	f := newFixture()
	if err := f.svc.Ingest(context.Background(), mustRecord(t, "rec-1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	delete(f.lex.texts, "rec-1")
	embedCallsBefore := f.embed.calls

	rep, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if rep.RepairedText != 1 {
		t.Errorf("expected 1 text repair, got %+v", rep)
	}
	if f.lex.texts["rec-1"] == "" {
		t.Error("text not restored")
	}
	if f.embed.calls != embedCallsBefore {
		t.Error("text repair must not call the embedder")
	}
}

func TestReconcile_OrphanIndexEntries_Removed(t *testing.T) {
	f := newFixture()
	f.lex.texts["ghost"] = "stale text"
	f.vec.vectors["ghost"] = []float32{0.1, 0.2}

	rep, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if rep.Orphans == 0 {
		t.Fatalf("expected orphan removal, got %+v", rep)
	}
	if len(f.lex.texts) != 0 || len(f.vec.vectors) != 0 {
		t.Error("orphan entries should be deleted from both indexes")
	}
}

func TestReconcile_Halted_SkipsVectorRepair(t *testing.T) {
	f := newFixture()
	if err := f.svc.Ingest(context.Background(), mustRecord(t, "rec-1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	delete(f.vec.vectors, "rec-1")
	f.svc.halted.Store(true)

	rep, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if rep.RepairedVector != 0 {
		t.Errorf("halted sweep must not re-embed, got %+v", rep)
	}
	if _, ok := f.vec.vectors["rec-1"]; ok {
		t.Error("vector should stay missing while halted")
	}
}

func TestReconcile_RepairFailure_SweepContinues(t *testing.T) {
	f := newFixture()
	if err := f.svc.Ingest(context.Background(), mustRecord(t, "rec-1")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	delete(f.vec.vectors, "rec-1")
	f.embed.err = domain.ErrEmbeddingUnavailable

	rep, err := f.svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("sweep must not abort on a repair failure, got %v", err)
	}
	if rep.Failed != 1 {
		t.Errorf("expected 1 failed repair, got %+v", rep)
	}
}
