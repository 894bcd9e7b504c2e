package record

import (
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
)

// Extent is the optional geospatial/temporal coverage of a record.
// The spatial part is a WGS84 bounding box; the temporal part is a
// half-open interval where either end may be absent.
type Extent struct {
	bounds *geom.Bounds
	begin  *time.Time
	end    *time.Time
}

// NewExtent creates an extent from a WSEN bounding box and optional
// temporal interval. Any of the three parts may be absent.
func NewExtent(bounds *geom.Bounds, begin, end *time.Time) *Extent {
	if bounds == nil && begin == nil && end == nil {
		return nil
	}
	return &Extent{bounds: bounds, begin: begin, end: end}
}

// BoundsFromWSEN builds a 2D bounds from west/south/east/north coordinates.
func BoundsFromWSEN(west, south, east, north float64) (*geom.Bounds, error) {
	if west > east {
		return nil, fmt.Errorf("bbox west %g > east %g", west, east)
	}
	if south > north {
		return nil, fmt.Errorf("bbox south %g > north %g", south, north)
	}
	if south < -90 || north > 90 || west < -180 || east > 180 {
		return nil, fmt.Errorf("bbox [%g %g %g %g] outside WGS84 range", west, south, east, north)
	}
	return geom.NewBounds(geom.XY).Set(west, south, east, north), nil
}

// Bounds returns the spatial bounding box, or nil.
func (e *Extent) Bounds() *geom.Bounds {
	if e == nil {
		return nil
	}
	return e.bounds
}

// Begin returns the start of the temporal coverage, or nil.
func (e *Extent) Begin() *time.Time {
	if e == nil {
		return nil
	}
	return e.begin
}

// End returns the end of the temporal coverage, or nil.
func (e *Extent) End() *time.Time {
	if e == nil {
		return nil
	}
	return e.end
}
