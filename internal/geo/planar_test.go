package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSymmetry(t *testing.T) {
	a := Point{X: 100, Y: 200}
	b := Point{X: -350, Y: 775}
	assert.Equal(t, Distance(a, b), Distance(b, a))
	assert.Equal(t, 0.0, Distance(a, a))
}

func TestDistanceTriangleInequality(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 500, Y: 866},
		{X: -200, Y: 40}, {X: 123.4, Y: -987.6},
	}
	for _, a := range pts {
		for _, b := range pts {
			for _, c := range pts {
				assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-9)
			}
		}
	}
}

func TestDistanceToSegment(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: 0}

	// Perpendicular drop onto the interior.
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 5, Y: 5}, a, b), 1e-12)
	// Beyond the endpoints the distance is to the endpoint.
	assert.InDelta(t, 5, DistanceToSegment(Point{X: -5, Y: 0}, a, b), 1e-12)
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 13, Y: 4}, a, b), 1e-12)
	// Degenerate segment.
	assert.InDelta(t, 5, DistanceToSegment(Point{X: 3, Y: 4}, a, a), 1e-12)
}

func TestDistanceToPolyline(t *testing.T) {
	line := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	require.InDelta(t, 1, DistanceToPolyline(Point{X: 11, Y: 5}, line), 1e-12)
	require.InDelta(t, 2, DistanceToPolyline(Point{X: 5, Y: 2}, line), 1e-12)

	// Single vertex falls back to point distance.
	require.InDelta(t, 5, DistanceToPolyline(Point{X: 3, Y: 4}, line[:1]), 1e-12)
}

func TestMidpoint(t *testing.T) {
	m := Midpoint(Point{X: 0, Y: 10}, Point{X: 10, Y: 20})
	assert.Equal(t, Point{X: 5, Y: 15}, m)
}
