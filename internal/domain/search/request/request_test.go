package request

import (
	"errors"
	"testing"

	"github.com/terralab/georag/internal/domain"
)

func TestNewWeights_Valid(t *testing.T) {
	w, err := NewWeights(0.6, 0.4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Vector() != 0.6 || w.Lexical() != 0.4 {
		t.Errorf("weights: %g/%g", w.Vector(), w.Lexical())
	}
}

func TestNewWeights_PureSignals(t *testing.T) {
	if _, err := NewWeights(1.0, 0.0); err != nil {
		t.Errorf("vector-only: %v", err)
	}
	if _, err := NewWeights(0.0, 1.0); err != nil {
		t.Errorf("lexical-only: %v", err)
	}
}

func TestNewWeights_SumMustBeOne(t *testing.T) {
	for _, pair := range [][2]float64{{0.9, 0.9}, {0.2, 0.3}, {0, 0}} {
		if _, err := NewWeights(pair[0], pair[1]); !errors.Is(err, domain.ErrInvalidWeights) {
			t.Errorf("weights %v: got %v, want ErrInvalidWeights", pair, err)
		}
	}
}

func TestNewWeights_OutOfRange(t *testing.T) {
	if _, err := NewWeights(1.5, -0.5); !errors.Is(err, domain.ErrInvalidWeights) {
		t.Fatalf("got %v, want ErrInvalidWeights", err)
	}
}

func TestNewWeights_WithinTolerance(t *testing.T) {
	// Float arithmetic like 0.7+0.3 may miss 1.0 by an ulp.
	if _, err := NewWeights(0.7, 0.30000000000000004); err != nil {
		t.Fatalf("tolerance not applied: %v", err)
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w.Vector() != 0.70 || w.Lexical() != 0.30 {
		t.Errorf("defaults: %g/%g, want 0.70/0.30", w.Vector(), w.Lexical())
	}
	if err := w.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestNew_TrimsQuery(t *testing.T) {
	r, err := New("  depth grid  ", 10, DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "depth grid" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.TopK() != 10 {
		t.Errorf("TopK() = %d", r.TopK())
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := New(q, 10, DefaultWeights()); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("query %q: got %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestNew_NonPositiveTopK(t *testing.T) {
	for _, k := range []int{0, -5} {
		if _, err := New("depth", k, DefaultWeights()); !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("top_k %d: got %v, want ErrInvalidQuery", k, err)
		}
	}
}

func TestNew_RejectsInvalidWeights(t *testing.T) {
	if _, err := New("depth", 10, Weights{}); !errors.Is(err, domain.ErrInvalidWeights) {
		t.Fatalf("got %v, want ErrInvalidWeights", err)
	}
}
