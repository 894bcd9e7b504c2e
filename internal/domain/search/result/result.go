// Package result holds hybrid search result types.
package result

import "github.com/terralab/georag/internal/domain/record"

// Candidate is a raw (record id, score) pair from a single index.
type Candidate struct {
	ID    string
	Score float64
}

// Result is a single hybrid search hit with its blended and per-signal scores.
type Result struct {
	id       string
	score    float64
	vecScore float64
	lexScore float64
	rec      *record.Record
}

// New creates a result from the blended score and its two normalized components.
func New(id string, score, vecScore, lexScore float64) Result {
	return Result{id: id, score: score, vecScore: vecScore, lexScore: lexScore}
}

// WithRecord returns a copy of the result with display fields attached.
func (r Result) WithRecord(rec record.Record) Result {
	r.rec = &rec
	return r
}

// ID returns the record identifier.
func (r *Result) ID() string { return r.id }

// Score returns the blended score.
func (r *Result) Score() float64 { return r.score }

// VectorScore returns the normalized semantic score component.
func (r *Result) VectorScore() float64 { return r.vecScore }

// LexicalScore returns the normalized lexical score component.
func (r *Result) LexicalScore() float64 { return r.lexScore }

// Record returns the resolved record, or nil before resolution.
func (r *Result) Record() *record.Record { return r.rec }
