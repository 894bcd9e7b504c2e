package hybrid

import (
	"math"
	"testing"

	"github.com/terralab/georag/internal/domain/search/request"
	"github.com/terralab/georag/internal/domain/search/result"
)

func TestNormalize_MinMax(t *testing.T) {
	scores := normalize([]result.Candidate{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.5},
		{ID: "c", Score: 0.7},
	})
	if scores["a"] != 1.0 || scores["b"] != 0.0 {
		t.Errorf("expected extremes 1.0/0.0, got a=%f b=%f", scores["a"], scores["b"])
	}
	if math.Abs(scores["c"]-0.5) > 1e-10 {
		t.Errorf("expected midpoint 0.5, got %f", scores["c"])
	}
}

func TestNormalize_EqualScores_AllOne(t *testing.T) {
	scores := normalize([]result.Candidate{
		{ID: "a", Score: 0.42},
		{ID: "b", Score: 0.42},
	})
	for id, s := range scores {
		if s != 1.0 {
			t.Errorf("%s: equal raw scores must all normalize to 1.0, got %f", id, s)
		}
		if math.IsNaN(s) {
			t.Errorf("%s: NaN after normalization", id)
		}
	}
}

func TestNormalize_SingleCandidate(t *testing.T) {
	scores := normalize([]result.Candidate{{ID: "a", Score: 0.123}})
	if scores["a"] != 1.0 {
		t.Errorf("single candidate must normalize to 1.0, got %f", scores["a"])
	}
}

func TestNormalize_Empty(t *testing.T) {
	if scores := normalize(nil); len(scores) != 0 {
		t.Errorf("expected empty map, got %v", scores)
	}
}

func TestMergeBlend_UnionAndWeights(t *testing.T) {
	vec := []result.Candidate{{ID: "A", Score: 0.9}, {ID: "B", Score: 0.5}}
	lex := []result.Candidate{{ID: "B", Score: 0.8}, {ID: "C", Score: 0.3}}

	merged := mergeBlend(vec, lex, request.DefaultWeights(), 10)
	if len(merged) != 3 {
		t.Fatalf("expected union of 3 ids, got %d", len(merged))
	}

	want := map[string]float64{"A": 0.70, "B": 0.30, "C": 0.00}
	for i := range merged {
		if math.Abs(merged[i].Score()-want[merged[i].ID()]) > 1e-10 {
			t.Errorf("%s: expected %.2f, got %f", merged[i].ID(), want[merged[i].ID()], merged[i].Score())
		}
	}
	if merged[0].ID() != "A" || merged[1].ID() != "B" || merged[2].ID() != "C" {
		t.Errorf("wrong order: %s %s %s", merged[0].ID(), merged[1].ID(), merged[2].ID())
	}
}

func TestMergeBlend_AbsentFamilyContributesZero(t *testing.T) {
	vec := []result.Candidate{{ID: "a", Score: 0.9}}
	merged := mergeBlend(vec, nil, request.DefaultWeights(), 10)
	if len(merged) != 1 {
		t.Fatalf("expected 1 result, got %d", len(merged))
	}
	if merged[0].LexicalScore() != 0 {
		t.Errorf("absent lexical score must be 0, got %f", merged[0].LexicalScore())
	}
	if math.Abs(merged[0].Score()-0.70) > 1e-10 {
		t.Errorf("expected 0.70, got %f", merged[0].Score())
	}
}

func TestMergeBlend_TieBreakAscendingID(t *testing.T) {
	lex := []result.Candidate{
		{ID: "zulu", Score: 0.5},
		{ID: "alpha", Score: 0.5},
		{ID: "mike", Score: 0.5},
	}
	merged := mergeBlend(nil, lex, request.DefaultWeights(), 10)
	if merged[0].ID() != "alpha" || merged[1].ID() != "mike" || merged[2].ID() != "zulu" {
		t.Errorf("expected ascending id on ties, got %s %s %s",
			merged[0].ID(), merged[1].ID(), merged[2].ID())
	}
}

func TestMergeBlend_TopKTruncation(t *testing.T) {
	vec := []result.Candidate{
		{ID: "a", Score: 0.9},
		{ID: "b", Score: 0.7},
		{ID: "c", Score: 0.5},
		{ID: "d", Score: 0.3},
	}
	merged := mergeBlend(vec, nil, request.DefaultWeights(), 2)
	if len(merged) != 2 {
		t.Fatalf("expected 2 results, got %d", len(merged))
	}
	if merged[0].ID() != "a" || merged[1].ID() != "b" {
		t.Errorf("expected top 2 by score, got %s %s", merged[0].ID(), merged[1].ID())
	}
}

func TestMergeBlend_BothEmpty(t *testing.T) {
	if merged := mergeBlend(nil, nil, request.DefaultWeights(), 10); len(merged) != 0 {
		t.Fatalf("expected no results, got %d", len(merged))
	}
}
