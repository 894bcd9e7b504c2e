package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"

	domrec "github.com/terralab/georag/internal/domain/record"
)

// Hash field names. keywordSep is the ASCII unit separator: keywords may
// contain commas and whitespace.
const (
	fieldID        = "id"
	fieldTitle     = "title"
	fieldAbstract  = "abstract"
	fieldKeywords  = "keywords"
	fieldBBox      = "bbox"
	fieldTimeBegin = "time_begin"
	fieldTimeEnd   = "time_end"

	keywordSep = "\x1f"
)

func toFields(rec domrec.Record) map[string]string {
	fields := map[string]string{
		fieldID:       rec.ID(),
		fieldTitle:    rec.Title(),
		fieldAbstract: rec.Abstract(),
		fieldKeywords: strings.Join(rec.Keywords(), keywordSep),
	}

	ext := rec.Extent()
	if b := ext.Bounds(); b != nil {
		fields[fieldBBox] = fmt.Sprintf("%g %g %g %g", b.Min(0), b.Min(1), b.Max(0), b.Max(1))
	}
	if t := ext.Begin(); t != nil {
		fields[fieldTimeBegin] = t.Format(time.RFC3339)
	}
	if t := ext.End(); t != nil {
		fields[fieldTimeEnd] = t.Format(time.RFC3339)
	}

	return fields
}

func fromFields(fields map[string]string) (domrec.Record, error) {
	var keywords []string
	if kw := fields[fieldKeywords]; kw != "" {
		keywords = strings.Split(kw, keywordSep)
	}

	bounds, err := parseBBox(fields[fieldBBox])
	if err != nil {
		return domrec.Record{}, err
	}
	begin, err := parseTime(fields[fieldTimeBegin])
	if err != nil {
		return domrec.Record{}, err
	}
	end, err := parseTime(fields[fieldTimeEnd])
	if err != nil {
		return domrec.Record{}, err
	}

	return domrec.New(
		fields[fieldID],
		fields[fieldTitle],
		fields[fieldAbstract],
		keywords,
		domrec.NewExtent(bounds, begin, end),
	)
}

func parseBBox(s string) (*geom.Bounds, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Fields(s)
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox field %q: want 4 coordinates", s)
	}
	coords := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bbox field %q: %w", s, err)
		}
		coords[i] = v
	}
	return domrec.BoundsFromWSEN(coords[0], coords[1], coords[2], coords[3])
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("time field %q: %w", s, err)
	}
	return &t, nil
}
