package memory

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/terralab/georag/internal/db"
)

// BM25 parameters (standard values).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// SearchKNN runs brute-force cosine similarity over the indexed vectors.
// Results are ordered by descending similarity, ties broken by ascending key.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.indexedDocs(q.IndexName)
	if err != nil {
		return nil, err
	}

	entries := make([]db.SearchEntry, 0, len(docs))
	for key, fields := range docs {
		raw, ok := fields["vector"]
		if !ok {
			continue
		}
		vec, err := bytesToVector(raw)
		if err != nil || len(vec) != len(q.Vector) {
			continue
		}
		sim := cosineSimilarity(q.Vector, vec)
		entries = append(entries, db.SearchEntry{
			Key:   key,
			Score: max(0, sim), // clamp to [0,1] like the redis driver
		})
	}

	sortEntries(entries)
	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// SearchBM25 scores indexed text fields with BM25 against the query terms.
// Documents matching no term are omitted.
func (s *Store) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.indexedDocs(q.IndexName)
	if err != nil {
		return nil, err
	}

	// Term frequencies and lengths for the current document set.
	type docStats struct {
		key string
		tf  map[string]int
		len int
	}

	stats := make([]docStats, 0, len(docs))
	var totalLen int64
	for key, fields := range docs {
		text, ok := fields["text"]
		if !ok {
			continue
		}
		tokens := tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		stats = append(stats, docStats{key: key, tf: tf, len: len(tokens)})
		totalLen += int64(len(tokens))
	}
	if len(stats) == 0 {
		return &db.SearchResult{}, nil
	}
	avgLen := float64(totalLen) / float64(len(stats))

	terms := tokenize(q.Query)

	// Document frequency per query term.
	df := make(map[string]int, len(terms))
	for _, t := range terms {
		if _, ok := df[t]; ok {
			continue
		}
		for i := range stats {
			if stats[i].tf[t] > 0 {
				df[t]++
			}
		}
	}

	n := float64(len(stats))
	entries := make([]db.SearchEntry, 0, len(stats))
	for i := range stats {
		var score float64
		for t, d := range df {
			tf := float64(stats[i].tf[t])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(d)+0.5)/(float64(d)+0.5))
			norm := bm25K1 * (1 - bm25B + bm25B*float64(stats[i].len)/avgLen)
			score += idf * (tf * (bm25K1 + 1)) / (tf + norm)
		}
		if score > 0 {
			entries = append(entries, db.SearchEntry{Key: stats[i].key, Score: score})
		}
	}

	sortEntries(entries)
	total := len(entries)
	if len(entries) > q.TopK {
		entries = entries[:q.TopK]
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func sortEntries(entries []db.SearchEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	return r == '\'' || r == '-' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		r > 127 // keep non-ASCII letters whole; catalog titles are multilingual
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func bytesToVector(raw string) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("invalid vector bytes: len=%d", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(raw[i*4 : i*4+4])))
	}
	return vec, nil
}
