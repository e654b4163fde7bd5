// Package streetgraph implements the planar street-network graph (C2):
// vertices and edges carrying ways, a bucketed coordinate proximity
// index, an admin lookup, and a per-way house-number address index.
package streetgraph

import (
	"github.com/pkg/errors"

	"github.com/antigravity/kraken-worker/internal/geo"
)

// ErrNotFound is returned by lookups (nearest vertex, ...) that find no
// candidate at all.
var ErrNotFound = errors.New("streetgraph: not found")

// Mode is a transport characteristic an edge may be admissible for.
type Mode int

const (
	ModeWalk Mode = iota
	ModeBike
	ModeCar
	ModeBssTake
	ModeBssPutback
)

// VertexID indexes Graph.Vertices.
type VertexID int32

// EdgeID indexes Graph.Edges.
type EdgeID int32

// WayID indexes Graph.Ways.
type WayID int32

// Vertex is a node of the street graph.
type Vertex struct {
	Coord Coordinate
	// Out holds the indices (into Graph.Edges) of edges leaving this
	// vertex.
	Out []EdgeID
}

// Coordinate is a re-export alias kept local to avoid every caller of
// this package importing internal/geo just to spell the type out.
type Coordinate = geo.Coordinate

// Edge is a directed arc of the street graph.
type Edge struct {
	Source VertexID
	Target VertexID
	Length float64 // meters
	Way    WayID
	Mode   Mode
}

// HouseNumber is a single address point on a Way.
type HouseNumber struct {
	Number int
	Coord  Coordinate
}

// Way owns an ordered list of edges, a name, a type, admin references and
// the even/odd house-number indexes. See "Street graph".
type Way struct {
	ID      WayID
	Name    string
	Type    string
	Edges   []EdgeID // ordered, each edge of the way referenced exactly once
	Admins  []AdminID
	Even    []HouseNumber // sorted ascending, Number % 2 == 0
	Odd     []HouseNumber // sorted ascending, Number % 2 != 0
}

// Graph is the read-only street network. It is built once (offline, or by
// internal/datasetload) and never mutated from the query path.
type Graph struct {
	Vertices []Vertex
	Edges    []Edge
	Ways     []Way

	Proximity *ProximityList
	Admins    *AdminIndex
}

// NewGraph builds an empty graph with the given vertex coordinates
// preloaded into the proximity index. Edges are added with AddEdge
// afterwards; ways are appended to Graph.Ways directly.
func NewGraph(coords []Coordinate) *Graph {
	g := &Graph{
		Vertices: make([]Vertex, len(coords)),
	}
	for i, c := range coords {
		g.Vertices[i] = Vertex{Coord: c}
	}
	g.Proximity = NewProximityList(coords)
	g.Admins = NewAdminIndex()
	return g
}

// AddEdge appends a directed edge and registers it on its source vertex's
// adjacency list. Returns the new edge's id.
func (g *Graph) AddEdge(source, target VertexID, length float64, way WayID, mode Mode) EdgeID {
	id := EdgeID(len(g.Edges))
	g.Edges = append(g.Edges, Edge{Source: source, Target: target, Length: length, Way: way, Mode: mode})
	g.Vertices[source].Out = append(g.Vertices[source].Out, id)
	return id
}

// OutEdges returns the outgoing edges of v admissible for mode.
func (g *Graph) OutEdges(v VertexID, mode Mode) []Edge {
	out := g.Vertices[v].Out
	edges := make([]Edge, 0, len(out))
	for _, eid := range out {
		e := g.Edges[eid]
		if e.Mode == mode {
			edges = append(edges, e)
		}
	}
	return edges
}
