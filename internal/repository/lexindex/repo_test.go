package lexindex

import (
	"context"
	"reflect"
	"sort"
	"testing"

	dbmemory "github.com/terralab/georag/internal/db/memory"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	repo := New(dbmemory.NewStore())
	if err := repo.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	return repo
}

func TestEnsure_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ensure(context.Background()); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
}

func TestUpsertQuery_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	docs := map[string]string{
		"rec-1": "baltic sea bathymetry depth grid",
		"rec-2": "north sea salinity profiles",
		"rec-3": "forest land cover",
	}
	for id, text := range docs {
		if err := repo.Upsert(ctx, id, text); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	cands, err := repo.Query(ctx, "sea bathymetry", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("candidates: %+v, want the two sea docs", cands)
	}
	// Ids come back without the storage prefix; both-term doc ranks first.
	if cands[0].ID != "rec-1" || cands[1].ID != "rec-2" {
		t.Errorf("order: %+v", cands)
	}
	if cands[0].Score <= cands[1].Score {
		t.Errorf("scores not descending: %+v", cands)
	}
}

func TestUpsert_ReplacesText(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.Upsert(ctx, "rec-1", "glacier inventory")
	_ = repo.Upsert(ctx, "rec-1", "wetland inventory")

	cands, err := repo.Query(ctx, "glacier", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("old text still indexed: %+v", cands)
	}

	cands, err = repo.Query(ctx, "wetland", 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "rec-1" {
		t.Errorf("new text not indexed: %+v", cands)
	}
}

func TestQuery_TruncatesToN(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.Upsert(ctx, "rec-1", "ocean temperature")
	_ = repo.Upsert(ctx, "rec-2", "ocean currents")
	_ = repo.Upsert(ctx, "rec-3", "ocean depth")

	cands, err := repo.Query(ctx, "ocean", 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(cands) != 2 {
		t.Errorf("candidates: %d, want 2", len(cands))
	}
}

func TestDeleteExistsIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.Upsert(ctx, "rec-1", "alpha")
	_ = repo.Upsert(ctx, "rec-2", "beta")

	ok, err := repo.Exists(ctx, "rec-2")
	if err != nil || !ok {
		t.Fatalf("exists: %v/%v", ok, err)
	}

	ids, err := repo.IDs(ctx)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	sort.Strings(ids)
	if !reflect.DeepEqual(ids, []string{"rec-1", "rec-2"}) {
		t.Errorf("ids: %v", ids)
	}

	if err := repo.Delete(ctx, "rec-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = repo.Exists(ctx, "rec-2")
	if ok {
		t.Error("rec-2 should be gone")
	}
}
