package streetgraph

import "log"

// Parity selects which of a Way's two house-number lists to search.
type Parity bool

const (
	Even Parity = true
	Odd  Parity = false
)

func (w *Way) numbers(p Parity) []HouseNumber {
	if p == Even {
		return w.Even
	}
	return w.Odd
}

// NearestCoord implements house-number resolution rules, in
// order:
//
//  1. no numbers on the requested parity, or number <= 0: barycenter.
//  2. number greater than all stored numbers: last one's coord.
//  3. number smaller than all stored numbers: first one's coord.
//  4. exact match: that number's coord.
//  5. otherwise: linear interpolation between the enclosing neighbors.
func (w *Way) NearestCoord(g *Graph, number int, parity Parity) Coordinate {
	list := w.numbers(parity)
	if len(list) == 0 || number <= 0 {
		return w.Barycenter(g)
	}
	if number > list[len(list)-1].Number {
		return list[len(list)-1].Coord
	}
	if number < list[0].Number {
		return list[0].Coord
	}

	// hnUpper tracks the first number >= the requested one; a single
	// call here only ever runs the loop once per lookup.
	var hnLower, hnUpper *HouseNumber
	for i := range list {
		if list[i].Number == number {
			return list[i].Coord
		}
		if list[i].Number < number {
			hnLower = &list[i]
		} else if hnUpper == nil {
			hnUpper = &list[i]
			break
		}
	}
	if hnLower == nil || hnUpper == nil {
		return w.Barycenter(g)
	}

	span := float64(hnUpper.Number - hnLower.Number)
	if span == 0 {
		return hnLower.Coord
	}
	t := float64(number-hnLower.Number) / span
	return Coordinate{
		Lon: hnLower.Coord.Lon + t*(hnUpper.Coord.Lon-hnLower.Coord.Lon),
		Lat: hnLower.Coord.Lat + t*(hnUpper.Coord.Lat-hnLower.Coord.Lat),
	}
}

// Barycenter returns the centroid of the way's edge polyline, with
// de-duplication of consecutive reversed edges (a common artifact of
// bidirectional street import where both directions of the same
// physical segment are stored as distinct edges).
func (w *Way) Barycenter(g *Graph) Coordinate {
	line := w.polyline(g)
	if len(line) == 0 {
		log.Printf("streetgraph: way %d has no usable geometry, returning default coord", w.ID)
		return Coordinate{}
	}
	var sumLon, sumLat float64
	for _, c := range line {
		sumLon += c.Lon
		sumLat += c.Lat
	}
	n := float64(len(line))
	return Coordinate{Lon: sumLon / n, Lat: sumLat / n}
}

// polyline concatenates the way's edges into a single ordered point
// list, skipping an edge whose (source, target) pair is the exact
// reverse of the previous edge's (source, target) so a back-and-forth
// way doesn't double back on its own geometry.
func (w *Way) polyline(g *Graph) []Coordinate {
	var out []Coordinate
	var prevSource, prevTarget VertexID
	havePrev := false

	for _, eid := range w.Edges {
		e := g.Edges[eid]
		if havePrev && e.Source == prevTarget && e.Target == prevSource {
			// Reversal of the previous edge: same physical segment,
			// don't double-count its endpoints.
			prevSource, prevTarget = e.Source, e.Target
			continue
		}
		if len(out) == 0 {
			out = append(out, g.Vertices[e.Source].Coord)
		}
		out = append(out, g.Vertices[e.Target].Coord)
		prevSource, prevTarget = e.Source, e.Target
		havePrev = true
	}
	return out
}
