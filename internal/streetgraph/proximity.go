package streetgraph

import (
	"math"

	"github.com/antigravity/kraken-worker/internal/geo"
)

// bucketSizeDeg is the grid cell size, in degrees, used to bucket
// coordinates for nearest-neighbor lookup. At mid-latitudes this is on
// the order of a few hundred meters per cell, which keeps FindNearest's
// expanding-ring search to a handful of buckets for typical street-graph
// densities.
const bucketSizeDeg = 0.005

type bucketKey struct{ x, y int }

func bucketOf(c Coordinate) bucketKey {
	return bucketKey{
		x: int(math.Floor(c.Lon / bucketSizeDeg)),
		y: int(math.Floor(c.Lat / bucketSizeDeg)),
	}
}

// ProximityList is a bucketed 2-D index over a fixed set of coordinates,
// supporting k-nearest lookup, used in place of a PostGIS viewport query
// when the street graph is already resident in memory.
type ProximityList struct {
	coords  []Coordinate
	buckets map[bucketKey][]int // bucket -> indices into coords
}

// NewProximityList indexes coords for nearest-neighbor queries. The
// returned indices in FindNearest/FindKNearest refer to positions in
// coords.
func NewProximityList(coords []Coordinate) *ProximityList {
	pl := &ProximityList{
		coords:  coords,
		buckets: make(map[bucketKey][]int, len(coords)),
	}
	for i, c := range coords {
		k := bucketOf(c)
		pl.buckets[k] = append(pl.buckets[k], i)
	}
	return pl
}

// FindNearest returns the index of the coordinate closest to c. It fails
// with ErrNotFound if the index holds no coordinates at all, or none
// within 8192 buckets (about 41 degrees) of c's bucket.
func (pl *ProximityList) FindNearest(c Coordinate) (int, error) {
	found := pl.FindKNearest(c, 1)
	if len(found) == 0 {
		return 0, ErrNotFound
	}
	return found[0], nil
}

// FindKNearest returns up to k indices of the coordinates closest to c,
// ordered nearest-first. It expands a ring of buckets around c's bucket
// until it has at least k candidates (or has exhausted the index), then
// refines by exact haversine distance.
func (pl *ProximityList) FindKNearest(c Coordinate, k int) []int {
	if len(pl.coords) == 0 || k <= 0 {
		return nil
	}
	center := bucketOf(c)

	type cand struct {
		idx  int
		dist float64
	}
	var candidates []cand
	seen := make(map[int]bool)

	prevRing := -1
	maxRing := 1
	for {
		for dx := -maxRing; dx <= maxRing; dx++ {
			for dy := -maxRing; dy <= maxRing; dy++ {
				// Only scan buckets outside the square already scanned on
				// the previous pass.
				if dx >= -prevRing && dx <= prevRing && dy >= -prevRing && dy <= prevRing {
					continue
				}
				key := bucketKey{x: center.x + dx, y: center.y + dy}
				for _, idx := range pl.buckets[key] {
					if seen[idx] {
						continue
					}
					seen[idx] = true
					candidates = append(candidates, cand{idx: idx, dist: geo.Distance(c, pl.coords[idx])})
				}
			}
		}

		if len(candidates) >= k || maxRing > 4096 {
			break
		}
		if len(seen) >= len(pl.coords) {
			break
		}
		prevRing = maxRing
		maxRing *= 2
	}

	// Partial selection sort for the k smallest; candidate counts are
	// small enough in practice that this beats pulling in a heap just
	// for this.
	for i := 0; i < len(candidates) && i < k; i++ {
		min := i
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].dist < candidates[min].dist {
				min = j
			}
		}
		candidates[i], candidates[min] = candidates[min], candidates[i]
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]int, len(candidates))
	for i, cd := range candidates {
		out[i] = cd.idx
	}
	return out
}
