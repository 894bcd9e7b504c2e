package hybrid

import (
	"sort"

	"github.com/terralab/georag/internal/domain/search/request"
	"github.com/terralab/georag/internal/domain/search/result"
)

// mergeBlend unions the two candidate sets by record id, normalizes each
// score family independently, blends with the given weights, and returns
// the top k in deterministic order.
//
// Normalization is min-max over the scores present in a family; ids absent
// from a family contribute 0. Raw vector and lexical scores live on scales
// that differ by orders of magnitude (bounded cosine similarity vs unbounded
// term-frequency relevance), so blending without normalization would make
// the weight ratio meaningless.
func mergeBlend(vec, lex []result.Candidate, w request.Weights, topK int) []result.Result {
	nv := normalize(vec)
	nl := normalize(lex)

	ids := make(map[string]struct{}, len(nv)+len(nl))
	for id := range nv {
		ids[id] = struct{}{}
	}
	for id := range nl {
		ids[id] = struct{}{}
	}

	merged := make([]result.Result, 0, len(ids))
	for id := range ids {
		vs := nv[id] // absent → 0: a purely-lexical match still surfaces
		ls := nl[id]
		blended := w.Vector()*vs + w.Lexical()*ls
		merged = append(merged, result.New(id, blended, vs, ls))
	}

	// Descending blended score; ties broken by ascending record id so that
	// identical inputs always produce identical output order.
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score() != merged[j].Score() {
			return merged[i].Score() > merged[j].Score()
		}
		return merged[i].ID() < merged[j].ID()
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

// normalize min-max scales candidate scores to [0,1]. When every score in
// the family is equal (including a single candidate), all map to 1.0 — the
// signal carries no ordering information but must not divide by zero or
// emit NaN.
func normalize(cands []result.Candidate) map[string]float64 {
	if len(cands) == 0 {
		return nil
	}

	lo, hi := cands[0].Score, cands[0].Score
	for _, c := range cands[1:] {
		if c.Score < lo {
			lo = c.Score
		}
		if c.Score > hi {
			hi = c.Score
		}
	}

	out := make(map[string]float64, len(cands))
	if hi == lo {
		for _, c := range cands {
			out[c.ID] = 1.0
		}
		return out
	}
	for _, c := range cands {
		out[c.ID] = (c.Score - lo) / (hi - lo)
	}
	return out
}
