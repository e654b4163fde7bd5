package streetgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLine(coords []Coordinate) *Graph {
	g := NewGraph(coords)
	var edges []EdgeID
	for i := 0; i+1 < len(coords); i++ {
		edges = append(edges, g.AddEdge(VertexID(i), VertexID(i+1), 100, 0, ModeWalk))
	}
	g.Ways = append(g.Ways, Way{ID: 0, Name: "Rue Test", Edges: edges})
	return g
}

func TestProximityListFindNearest(t *testing.T) {
	coords := []Coordinate{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0.001, Lat: 0.001}}
	pl := NewProximityList(coords)

	idx, err := pl.FindNearest(Coordinate{Lon: 0.0005, Lat: 0.0005})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestProximityListNotFoundOnEmpty(t *testing.T) {
	pl := NewProximityList(nil)
	_, err := pl.FindNearest(Coordinate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminIndexFindAdmins(t *testing.T) {
	ai := NewAdminIndex()
	square := []Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 10}, {Lon: 10, Lat: 10}, {Lon: 10, Lat: 0}}
	id := ai.Add("admin:city", "Testville", square)

	found := ai.FindAdmins(Coordinate{Lon: 5, Lat: 5})
	require.Len(t, found, 1)
	assert.Equal(t, id, found[0].ID)

	assert.Empty(t, ai.FindAdmins(Coordinate{Lon: 50, Lat: 50}))
}

func TestWayNearestCoordInterpolates(t *testing.T) {
	coords := []Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}
	g := buildLine(coords)
	way := &g.Ways[0]
	way.Odd = []HouseNumber{
		{Number: 1, Coord: Coordinate{Lon: 0, Lat: 0}},
		{Number: 9, Coord: Coordinate{Lon: 0, Lat: 1}},
	}

	mid := way.NearestCoord(g, 5, Odd)
	assert.InDelta(t, 0.5, mid.Lat, 1e-9)
}

func TestWayNearestCoordBoundsAndDefaults(t *testing.T) {
	coords := []Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}}
	g := buildLine(coords)
	way := &g.Ways[0]
	way.Odd = []HouseNumber{
		{Number: 3, Coord: Coordinate{Lon: 0, Lat: 0.2}},
		{Number: 7, Coord: Coordinate{Lon: 0, Lat: 0.8}},
	}

	assert.Equal(t, way.Odd[0].Coord, way.NearestCoord(g, 1, Odd))
	assert.Equal(t, way.Odd[1].Coord, way.NearestCoord(g, 99, Odd))
	assert.Equal(t, way.Odd[0].Coord, way.NearestCoord(g, 3, Odd))

	// No numbers at all on the even list: falls back to the barycenter.
	bary := way.NearestCoord(g, 4, Even)
	assert.Equal(t, way.Barycenter(g), bary)

	// number <= 0 always falls back to the barycenter too.
	assert.Equal(t, way.Barycenter(g), way.NearestCoord(g, 0, Odd))
}

func TestWayBarycenterDeduplicatesReversedEdges(t *testing.T) {
	coords := []Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 2}}
	g := NewGraph(coords)
	fwd := g.AddEdge(0, 1, 200, 0, ModeWalk)
	rev := g.AddEdge(1, 0, 200, 0, ModeWalk)
	way := Way{ID: 0, Edges: []EdgeID{fwd, rev}}
	g.Ways = append(g.Ways, way)

	// Barycenter of [ (0,0), (0,2) ] with the reversed edge skipped is (0,1).
	b := g.Ways[0].Barycenter(g)
	assert.InDelta(t, 1.0, b.Lat, 1e-9)
}
