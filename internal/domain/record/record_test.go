package record

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	rec, err := New("rec-1", "Baltic bathymetry", "Depth grid.", []string{"bathymetry"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID() != "rec-1" {
		t.Errorf("ID() = %q", rec.ID())
	}
	if rec.Title() != "Baltic bathymetry" {
		t.Errorf("Title() = %q", rec.Title())
	}
	if rec.Extent() != nil {
		t.Error("Extent() should be nil when none was supplied")
	}
}

func TestNew_EmptyID(t *testing.T) {
	if _, err := New("   ", "title", "", nil, nil); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestNew_NeedsTitleOrAbstract(t *testing.T) {
	if _, err := New("rec-1", "  ", "", nil, nil); err == nil {
		t.Fatal("expected error when both title and abstract are blank")
	}

	// Abstract alone is enough: some catalogs ship untitled records.
	if _, err := New("rec-1", "", "an abstract", nil, nil); err != nil {
		t.Fatalf("abstract-only record rejected: %v", err)
	}
}

func TestNew_DeduplicatesKeywords(t *testing.T) {
	rec, err := New("rec-1", "t", "", []string{" depth ", "depth", "", "salinity", "depth"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rec.Keywords(), []string{"depth", "salinity"}) {
		t.Errorf("Keywords() = %v, want [depth salinity]", rec.Keywords())
	}
}

func TestNew_TrimsText(t *testing.T) {
	rec, err := New("rec-1", "  title  ", "  abstract  ", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Title() != "title" || rec.Abstract() != "abstract" {
		t.Errorf("got %q/%q", rec.Title(), rec.Abstract())
	}
}

func TestSearchText_Deterministic(t *testing.T) {
	rec, err := New("rec-1", "Baltic bathymetry", "Depth grid.", []string{"depth", "baltic"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Baltic bathymetry\nDepth grid.\ndepth baltic"
	if rec.SearchText() != want {
		t.Errorf("SearchText() = %q, want %q", rec.SearchText(), want)
	}
	if rec.SearchText() != rec.SearchText() {
		t.Error("SearchText() must be stable")
	}
}

func TestSearchText_SkipsEmptyParts(t *testing.T) {
	rec, err := New("rec-1", "title only", "", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rec.SearchText(), "\n") {
		t.Errorf("SearchText() = %q, want no separators for a single part", rec.SearchText())
	}
}

// --- Extent ---

func TestBoundsFromWSEN_Valid(t *testing.T) {
	b, err := BoundsFromWSEN(9.0, 53.0, 31.0, 66.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Min(0) != 9.0 || b.Min(1) != 53.0 || b.Max(0) != 31.0 || b.Max(1) != 66.0 {
		t.Errorf("bounds: %v", b)
	}
}

func TestBoundsFromWSEN_Invalid(t *testing.T) {
	cases := []struct {
		name                     string
		west, south, east, north float64
	}{
		{"west beyond east", 31.0, 53.0, 9.0, 66.0},
		{"south beyond north", 9.0, 66.0, 31.0, 53.0},
		{"outside wgs84", -200.0, 53.0, 31.0, 66.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BoundsFromWSEN(tc.west, tc.south, tc.east, tc.north); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewExtent_AllAbsentIsNil(t *testing.T) {
	if ext := NewExtent(nil, nil, nil); ext != nil {
		t.Errorf("expected nil extent, got %+v", ext)
	}
}

func TestExtent_NilSafeAccessors(t *testing.T) {
	var ext *Extent
	if ext.Bounds() != nil || ext.Begin() != nil || ext.End() != nil {
		t.Error("nil extent accessors must return nil")
	}
}

func TestExtent_TemporalOnly(t *testing.T) {
	begin := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	ext := NewExtent(nil, &begin, nil)
	if ext == nil {
		t.Fatal("temporal-only extent should not collapse to nil")
	}
	if ext.Bounds() != nil {
		t.Error("Bounds() should be nil")
	}
	if ext.Begin() == nil || !ext.Begin().Equal(begin) {
		t.Errorf("Begin() = %v", ext.Begin())
	}
	if ext.End() != nil {
		t.Error("End() should be nil")
	}
}
