package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSymmetryAndNonNegativity(t *testing.T) {
	a := New(2.3522, 48.8566) // Paris
	b := New(4.8357, 45.7640) // Lyon

	dab := Distance(a, b)
	dba := Distance(b, a)

	assert.InDelta(t, dab, dba, 1e-6)
	assert.Greater(t, dab, 0.0)
	assert.True(t, Distance(a, a) < SameCoordEpsilon)
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, a))
}

func TestProjectOnSegmentIdempotence(t *testing.T) {
	a := New(0, 0)
	b := New(0, 1)
	mid := New(0, 0.5)

	proj := ProjectOnSegment(mid, a, b)
	assert.InDelta(t, 0, proj.Distance, SameCoordEpsilon)
	assert.True(t, Equal(mid, proj.Point))
}

func TestProjectOnSegmentDegenerate(t *testing.T) {
	a := New(1.0, 1.0)
	b := New(1.0+1e-7, 1.0+1e-7) // well under the ~1m degenerate threshold
	p := New(2.0, 1.0)

	proj := ProjectOnSegment(p, a, b)
	// Degenerate segment: projection must be one of the two endpoints.
	require.True(t, Equal(proj.Point, a) || Equal(proj.Point, b))
}

func TestProjectOnPolylinePicksClosestSegment(t *testing.T) {
	line := []Coordinate{New(0, 0), New(0, 1), New(0, 2)}
	p := New(0.0001, 1.5)

	proj, idx := ProjectOnPolyline(p, line)
	assert.Equal(t, 1, idx)
	assert.Less(t, proj.Distance, 100.0)
}

func TestSplitPolylineAt(t *testing.T) {
	line := []Coordinate{New(0, 0), New(0, 1), New(0, 2)}
	blade := New(0, 1.5)

	before := SplitPolylineAt(line, blade, 1, true)
	after := SplitPolylineAt(line, blade, 1, false)

	require.Len(t, before, 3)
	require.Len(t, after, 2)
	assert.Equal(t, blade, before[len(before)-1])
	assert.Equal(t, blade, after[0])
}

func TestTriangleInequality(t *testing.T) {
	a := New(-0.5795, 44.8378) // Bordeaux
	b := New(1.4442, 43.6047)  // Toulouse
	c := New(5.3698, 43.2965)  // Marseille

	assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-6)
}
