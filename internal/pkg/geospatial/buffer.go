package geospatial

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// QuadrantSegments is the number of segments used to approximate a quarter
// circle when buffering a point.
const QuadrantSegments = 16

// UnionBuffers buffers every center by radius, in the coordinates' own units,
// and returns the union of the resulting disks. Centers are (x, y) = (lon, lat).
// No centers yields an empty multipolygon.
func UnionBuffers(centers []geom.Coord, radius float64, srid int) (*geom.MultiPolygon, error) {
	if math.IsNaN(radius) || radius <= 0 {
		return nil, fmt.Errorf("buffer radius must be positive, got %g", radius)
	}

	empty := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
	if len(centers) == 0 {
		return empty, nil
	}

	disks := make([]*geos.Geom, 0, len(centers))
	for _, c := range centers {
		disks = append(disks, Disk(c, radius))
	}

	union := geos.NewCollection(geos.TypeIDGeometryCollection, disks).UnaryUnion()
	if union.IsEmpty() {
		return empty, nil
	}

	mp, err := FromGEOS(union)
	if err != nil {
		return nil, err
	}
	mp.SetSRID(srid)
	return mp, nil
}

// FromGEOS converts a GEOS polygonal geometry into a go-geom multipolygon.
func FromGEOS(g *geos.Geom) (*geom.MultiPolygon, error) {
	t, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("decode union wkb: %w", err)
	}

	switch v := t.(type) {
	case *geom.MultiPolygon:
		return v, nil
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(v); err != nil {
			return nil, fmt.Errorf("wrap polygon: %w", err)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("union produced %T, want polygonal geometry", t)
	}
}

// ToGEOS converts a go-geom geometry into a GEOS geometry for predicates.
func ToGEOS(g geom.T) (*geos.Geom, error) {
	data, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}
	gg, err := geos.NewGeomFromWKB(data)
	if err != nil {
		return nil, fmt.Errorf("decode geos wkb: %w", err)
	}
	return gg, nil
}

// Disk returns the buffered point used by UnionBuffers for a single center.
func Disk(center geom.Coord, radius float64) *geos.Geom {
	return geos.NewPointFromXY(center.X(), center.Y()).Buffer(radius, QuadrantSegments)
}
