// Package record holds the canonical catalog record model.
package record

import (
	"errors"
	"strings"
)

// Record is a single catalog metadata record. The id is assigned by the
// upstream catalog and never changes for the lifetime of the record.
type Record struct {
	id       string
	title    string
	abstract string
	keywords []string
	extent   *Extent
}

// New creates a record. Keywords are deduplicated preserving first occurrence.
func New(id, title, abstract string, keywords []string, extent *Extent) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, errors.New("record id is required")
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(abstract) == "" {
		return Record{}, errors.New("record needs a title or an abstract")
	}

	seen := make(map[string]struct{}, len(keywords))
	var kws []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kws = append(kws, k)
	}

	return Record{
		id:       id,
		title:    strings.TrimSpace(title),
		abstract: strings.TrimSpace(abstract),
		keywords: kws,
		extent:   extent,
	}, nil
}

// ID returns the stable record identifier.
func (r *Record) ID() string { return r.id }

// Title returns the record title.
func (r *Record) Title() string { return r.title }

// Abstract returns the record abstract.
func (r *Record) Abstract() string { return r.abstract }

// Keywords returns the record keywords.
func (r *Record) Keywords() []string { return r.keywords }

// Extent returns the spatial/temporal extent, or nil when the catalog
// supplied none.
func (r *Record) Extent() *Extent { return r.extent }

// SearchText derives the searchable text deterministically from
// title + abstract + keywords. Both indexes and the embedder consume
// exactly this string, so re-deriving it always reproduces what was indexed.
func (r *Record) SearchText() string {
	parts := make([]string, 0, 3)
	if r.title != "" {
		parts = append(parts, r.title)
	}
	if r.abstract != "" {
		parts = append(parts, r.abstract)
	}
	if len(r.keywords) > 0 {
		parts = append(parts, strings.Join(r.keywords, " "))
	}
	return strings.Join(parts, "\n")
}
