package streetrouting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/kraken-worker/internal/geo"
	"github.com/antigravity/kraken-worker/internal/streetgraph"
)

// buildChain builds a straight 4-vertex bidirectional walk graph spaced
// ~111m apart in latitude (1 vertex per 0.001 degree).
func buildChain(t *testing.T) *streetgraph.Graph {
	t.Helper()
	coords := []geo.Coordinate{
		geo.New(0, 0),
		geo.New(0, 0.001),
		geo.New(0, 0.002),
		geo.New(0, 0.003),
	}
	g := streetgraph.NewGraph(coords)
	for i := 0; i+1 < len(coords); i++ {
		d := geo.Distance(coords[i], coords[i+1])
		g.AddEdge(streetgraph.VertexID(i), streetgraph.VertexID(i+1), d, 0, streetgraph.ModeWalk)
		g.AddEdge(streetgraph.VertexID(i+1), streetgraph.VertexID(i), d, 0, streetgraph.ModeWalk)
	}
	return g
}

func TestDijkstraFindsShortestPath(t *testing.T) {
	g := buildChain(t)
	pf := NewPathFinder(g, streetgraph.ModeWalk)
	pf.RunFrom(map[streetgraph.VertexID]float64{0: 0}, 0)

	d3, ok := pf.Duration(3)
	require.True(t, ok)
	assert.Greater(t, d3, time.Duration(0))

	path := pf.GetPath(3)
	require.Len(t, path, 3)
}

func TestNearestEdgeAndProjectOrigin(t *testing.T) {
	g := buildChain(t)
	coord := geo.New(0.0001, 0.0005) // near the first segment

	eid, proj, err := NearestEdge(g, coord, streetgraph.ModeWalk)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int(eid), 0)
	assert.Greater(t, proj.Distance, 0.0)

	start, err := ProjectOrigin(g, coord, streetgraph.ModeWalk)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, start.DistanceToSource, 0.0)
	assert.GreaterOrEqual(t, start.DistanceToTarget, 0.0)
}

func TestDirectPathTriangleInequality(t *testing.T) {
	g := buildChain(t)
	a := geo.New(0, 0.0001)
	b := geo.New(0, 0.0019)
	c := geo.New(0, 0.0029)

	dab, err := DirectPath(g, streetgraph.ModeWalk, a, b, 0)
	require.NoError(t, err)
	dbc, err := DirectPath(g, streetgraph.ModeWalk, b, c, 0)
	require.NoError(t, err)
	dac, err := DirectPath(g, streetgraph.ModeWalk, a, c, 0)
	require.NoError(t, err)

	assert.LessOrEqual(t, dac.Seconds(), dab.Seconds()+dbc.Seconds()+1.0)
}

func TestNearestEdgeNotFoundOnEmptyGraph(t *testing.T) {
	g := streetgraph.NewGraph(nil)
	_, _, err := NearestEdge(g, geo.New(0, 0), streetgraph.ModeWalk)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindNearestStopPoints(t *testing.T) {
	g := buildChain(t)
	pf := NewPathFinder(g, streetgraph.ModeWalk)
	pf.RunFrom(map[streetgraph.VertexID]float64{0: 0}, 0)

	sp := map[int]streetgraph.VertexID{100: 1, 101: 3}
	within := FindNearestStopPoints(pf, sp, 2*time.Minute)
	_, farOK := within[101]
	_, nearOK := within[100]
	assert.True(t, nearOK)
	// 3 hops away may or may not fit in 2 minutes depending on speed;
	// if the far stop is left out, assert its vertex was still reached,
	// i.e. it was excluded by the duration bound.
	if !farOK {
		_, reached := pf.Duration(3)
		assert.True(t, reached)
	}
}
