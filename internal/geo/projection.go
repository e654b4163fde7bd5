package geo

import (
	"github.com/twpayne/go-geom"
)

// degenerateSegmentThreshold is the squared planar distance (in degrees²,
// roughly 1m at mid-latitudes) below which a segment is treated as a
// single point for projection purposes.
const degenerateSegmentThreshold = 1e-11

// Projection is the result of projecting a point onto a segment or
// polyline: the closest point Q and the distance from the original point
// to Q.
type Projection struct {
	Point    Coordinate
	Distance float64
}

// ProjectOnSegment returns the point on segment (a, b) closest to p, and
// the distance between p and that point. When (a, b) is degenerate
// (shorter than ~1m) it is treated as a point and the projection is
// whichever endpoint is closer to p.
func ProjectOnSegment(p, a, b Coordinate) Projection {
	if SquaredPlanarDistance(a, b) < degenerateSegmentThreshold {
		da, db := Distance(p, a), Distance(p, b)
		if da <= db {
			return Projection{Point: a, Distance: da}
		}
		return Projection{Point: b, Distance: db}
	}

	// Project in the (lon, lat) plane: adequate at the scale of a single
	// street edge, where the earth's curvature is negligible. The
	// haversine distance is still used for the reported Distance so it
	// stays comparable with every other distance in the system.
	abx, aby := b.Lon-a.Lon, b.Lat-a.Lat
	apx, apy := p.Lon-a.Lon, p.Lat-a.Lat

	t := (apx*abx + apy*aby) / (abx*abx + aby*aby)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	q := Coordinate{Lon: a.Lon + t*abx, Lat: a.Lat + t*aby}
	return Projection{Point: q, Distance: Distance(p, q)}
}

// ProjectOnPolyline returns the projection of p onto the closest segment
// of line (a sequence of at least 2 coordinates), and the index of that
// segment's first vertex.
func ProjectOnPolyline(p Coordinate, line []Coordinate) (Projection, int) {
	best := Projection{Distance: -1}
	bestIdx := -1
	for i := 0; i+1 < len(line); i++ {
		proj := ProjectOnSegment(p, line[i], line[i+1])
		if best.Distance < 0 || proj.Distance < best.Distance {
			best = proj
			bestIdx = i
		}
	}
	return best, bestIdx
}

// SplitPolylineAt splits line at blade (a point assumed to lie on, or
// close to, the polyline — typically the result of ProjectOnPolyline)
// and returns the half before or after the split, with blade prepended
// or appended as appropriate so the returned polyline is contiguous.
//
// which: true returns the half from the line's start up to blade; false
// returns the half from blade to the line's end.
func SplitPolylineAt(line []Coordinate, blade Coordinate, segmentIdx int, which bool) []Coordinate {
	if segmentIdx < 0 || segmentIdx+1 >= len(line) {
		return append([]Coordinate{}, line...)
	}
	if which {
		out := make([]Coordinate, 0, segmentIdx+2)
		out = append(out, line[:segmentIdx+1]...)
		out = append(out, blade)
		return out
	}
	out := make([]Coordinate, 0, len(line)-segmentIdx+1)
	out = append(out, blade)
	out = append(out, line[segmentIdx+1:]...)
	return out
}

// ToLineString converts a polyline into a twpayne/go-geom LineString in
// the XY layout, for consumers that need GeoJSON-shaped geometry (e.g.
// the worker's journey sections).
func ToLineString(line []Coordinate) *geom.LineString {
	flat := make([]float64, 0, len(line)*2)
	for _, c := range line {
		flat = append(flat, c.Lon, c.Lat)
	}
	ls := geom.NewLineStringFlat(geom.XY, flat)
	return ls
}
