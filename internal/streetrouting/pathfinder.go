// Package streetrouting implements the street pathfinder (C3): Dijkstra
// over the street graph with per-mode speed factors, nearest-edge
// projection from an arbitrary coordinate, and the first/last-mile
// reachable-stop-point table used by the worker to seed RAPTOR.
package streetrouting

import (
	"container/heap"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/antigravity/kraken-worker/internal/geo"
	"github.com/antigravity/kraken-worker/internal/streetgraph"
)

// ErrNotFound is returned when projection or nearest-edge lookup fails.
var ErrNotFound = errors.New("streetrouting: not found")

// SpeedFactor returns the walking-equivalent speed, in meters/second, for
// mode. Dijkstra edge weight is length/speed(mode).
func SpeedFactor(mode streetgraph.Mode) float64 {
	switch mode {
	case streetgraph.ModeWalk:
		return 1.38 // ~5 km/h
	case streetgraph.ModeBike:
		return 4.1 // ~15 km/h
	case streetgraph.ModeCar:
		return 11.1 // ~40 km/h
	case streetgraph.ModeBssTake, streetgraph.ModeBssPutback:
		return 1.38
	default:
		return 1.38
	}
}

// PathFinder runs Dijkstra on a single Graph for a single mode. A new
// PathFinder is created per request (its distances/predecessors buffers
// are reset each time, per resource scoping rules).
type PathFinder struct {
	Graph *streetgraph.Graph
	Mode  streetgraph.Mode

	distances    []float64
	predecessors []streetgraph.EdgeID
	hasPred      []bool
}

// NewPathFinder allocates the per-request Dijkstra buffers, sized to the
// graph's vertex count.
func NewPathFinder(g *streetgraph.Graph, mode streetgraph.Mode) *PathFinder {
	n := len(g.Vertices)
	pf := &PathFinder{
		Graph:        g,
		Mode:         mode,
		distances:    make([]float64, n),
		predecessors: make([]streetgraph.EdgeID, n),
		hasPred:      make([]bool, n),
	}
	for i := range pf.distances {
		pf.distances[i] = math.Inf(1)
	}
	return pf
}

type heapItem struct {
	vertex streetgraph.VertexID
	dist   float64
}

type minHeap []heapItem

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RunFrom runs Dijkstra from the given seed vertices, each with an
// initial pseudo-distance (e.g. the distance from a projected coordinate
// to that vertex). It stops expanding past bound (in seconds) when
// bound > 0.
func (pf *PathFinder) RunFrom(seeds map[streetgraph.VertexID]float64, bound time.Duration) {
	h := &minHeap{}
	heap.Init(h)

	for v, d := range seeds {
		if d < pf.distances[v] {
			pf.distances[v] = d
			heap.Push(h, heapItem{vertex: v, dist: d})
		}
	}

	maxSeconds := math.Inf(1)
	if bound > 0 {
		maxSeconds = bound.Seconds()
	}

	speed := SpeedFactor(pf.Mode)

	for h.Len() > 0 {
		top := heap.Pop(h).(heapItem)
		if top.dist > pf.distances[top.vertex] {
			continue // stale heap entry
		}
		if top.dist > maxSeconds {
			continue
		}
		for _, e := range pf.Graph.OutEdges(top.vertex, pf.Mode) {
			weight := e.Length / speed
			nd := top.dist + weight
			if nd < pf.distances[e.Target] {
				pf.distances[e.Target] = nd
				pf.predecessors[e.Target] = findEdgeID(pf.Graph, top.vertex, e)
				pf.hasPred[e.Target] = true
				heap.Push(h, heapItem{vertex: e.Target, dist: nd})
			}
		}
	}
}

// findEdgeID recovers the EdgeID for an Edge value returned by OutEdges
// (OutEdges copies Edge values, so we re-resolve the id by scanning the
// source vertex's adjacency — small, bounded by vertex degree).
func findEdgeID(g *streetgraph.Graph, source streetgraph.VertexID, e streetgraph.Edge) streetgraph.EdgeID {
	for _, eid := range g.Vertices[source].Out {
		cand := g.Edges[eid]
		if cand == e {
			return eid
		}
	}
	return -1
}

// Duration returns the travel duration found to vertex v, or false if
// unreached.
func (pf *PathFinder) Duration(v streetgraph.VertexID) (time.Duration, bool) {
	d := pf.distances[v]
	if math.IsInf(d, 1) {
		return 0, false
	}
	return time.Duration(d * float64(time.Second)), true
}

// GetPath reconstructs the shortest path (as a sequence of edges, source
// to target) found to vertex v so far. Returns nil if v is unreached.
func (pf *PathFinder) GetPath(v streetgraph.VertexID) []streetgraph.EdgeID {
	if !pf.hasPred[v] && pf.distances[v] != 0 {
		return nil
	}
	var path []streetgraph.EdgeID
	cur := v
	for pf.hasPred[cur] {
		eid := pf.predecessors[cur]
		path = append([]streetgraph.EdgeID{eid}, path...)
		cur = pf.Graph.Edges[eid].Source
	}
	return path
}

// NearestEdge finds the graph edge nearest to coord: the vertex nearest
// to coord via the proximity index, then among that vertex's outgoing
// edges (for the given mode) the one minimizing the projection distance
// from coord to the edge's segment. See step 1.
func NearestEdge(g *streetgraph.Graph, coord geo.Coordinate, mode streetgraph.Mode) (streetgraph.EdgeID, geo.Projection, error) {
	vIdx, err := g.Proximity.FindNearest(coord)
	if err != nil {
		return 0, geo.Projection{}, errors.Wrap(ErrNotFound, "no nearby vertex")
	}
	v := streetgraph.VertexID(vIdx)

	edges := g.OutEdges(v, mode)
	if len(edges) == 0 {
		return 0, geo.Projection{}, errors.Wrap(ErrNotFound, "nearest vertex has no admissible outgoing edge")
	}

	var bestEdge streetgraph.EdgeID = -1
	var bestProj geo.Projection
	bestProj.Distance = -1
	for _, eid := range g.Vertices[v].Out {
		e := g.Edges[eid]
		if e.Mode != mode {
			continue
		}
		proj := geo.ProjectOnSegment(coord, g.Vertices[e.Source].Coord, g.Vertices[e.Target].Coord)
		if bestProj.Distance < 0 || proj.Distance < bestProj.Distance {
			bestProj = proj
			bestEdge = eid
		}
	}
	if bestEdge < 0 {
		return 0, geo.Projection{}, errors.Wrap(ErrNotFound, "nearest edge projection failed")
	}
	return bestEdge, bestProj, nil
}

// PseudoStart is the seed state from which Dijkstra is run after
// projecting an origin coordinate onto its nearest edge: the distance
// (in seconds of travel time at the request's mode) from the projected
// point to each of the edge's two endpoints.
type PseudoStart struct {
	Source, Target                 streetgraph.VertexID
	DistanceToSource, DistanceToTarget float64 // seconds
}

// ProjectOrigin implements steps 1-2: locate the nearest edge
// to coord, project coord onto it, and compute the two pseudo-start
// distances.
func ProjectOrigin(g *streetgraph.Graph, coord geo.Coordinate, mode streetgraph.Mode) (PseudoStart, error) {
	eid, proj, err := NearestEdge(g, coord, mode)
	if err != nil {
		return PseudoStart{}, err
	}
	e := g.Edges[eid]
	speed := SpeedFactor(mode)

	return PseudoStart{
		Source:             e.Source,
		Target:             e.Target,
		DistanceToSource:   geo.Distance(proj.Point, g.Vertices[e.Source].Coord) / speed,
		DistanceToTarget:   geo.Distance(proj.Point, g.Vertices[e.Target].Coord) / speed,
	}, nil
}

// DirectPath runs Dijkstra from origin to destination and returns the
// total travel duration, or ErrNotFound if either endpoint cannot be
// projected onto the graph.
func DirectPath(g *streetgraph.Graph, mode streetgraph.Mode, origin, destination geo.Coordinate, bound time.Duration) (time.Duration, error) {
	start, err := ProjectOrigin(g, origin, mode)
	if err != nil {
		return 0, err
	}
	destEdge, destProj, err := NearestEdge(g, destination, mode)
	if err != nil {
		return 0, err
	}
	destEdgeVal := g.Edges[destEdge]
	speed := SpeedFactor(mode)

	pf := NewPathFinder(g, mode)
	pf.RunFrom(map[streetgraph.VertexID]float64{
		start.Source: start.DistanceToSource,
		start.Target: start.DistanceToTarget,
	}, bound)

	dSource, okS := pf.Duration(destEdgeVal.Source)
	dTarget, okT := pf.Duration(destEdgeVal.Target)

	destToSource := geo.Distance(destProj.Point, g.Vertices[destEdgeVal.Source].Coord) / speed
	destToTarget := geo.Distance(destProj.Point, g.Vertices[destEdgeVal.Target].Coord) / speed

	best := math.Inf(1)
	if okS {
		if v := dSource.Seconds() + destToSource; v < best {
			best = v
		}
	}
	if okT {
		if v := dTarget.Seconds() + destToTarget; v < best {
			best = v
		}
	}
	if math.IsInf(best, 1) {
		return 0, errors.Wrap(ErrNotFound, "destination unreachable")
	}
	return time.Duration(best * float64(time.Second)), nil
}

// FindNearestStopPoints returns, for every stop point vertex in
// spVertices reachable within maxDuration, its travel duration from the
// Dijkstra run already performed on pf. Implements 's
// find_nearest_stop_points.
func FindNearestStopPoints(pf *PathFinder, spVertices map[int]streetgraph.VertexID, maxDuration time.Duration) map[int]time.Duration {
	out := make(map[int]time.Duration)
	for spIdx, v := range spVertices {
		d, ok := pf.Duration(v)
		if !ok {
			continue
		}
		if maxDuration > 0 && d > maxDuration {
			continue
		}
		out[spIdx] = d
	}
	return out
}
