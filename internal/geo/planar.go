// Package geo provides planar geometry helpers for sample locations in a
// projected coordinate system. All distances are in projection units.
package geo

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point aliases r2.Point so callers get vector arithmetic for free.
type Point = r2.Point

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return a.Sub(b).Norm()
}

// Midpoint returns the midpoint of the segment ab.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// DistanceToSegment returns the shortest distance from p to the segment ab.
// Degenerate segments (a == b) reduce to point distance.
func DistanceToSegment(p, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return Distance(p, a)
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := a.Add(ab.Mul(t))
	return Distance(p, closest)
}

// DistanceToPolyline returns the shortest distance from p to any segment
// of the polyline. A single-vertex polyline reduces to point distance.
func DistanceToPolyline(p Point, line []Point) float64 {
	if len(line) == 0 {
		return math.Inf(1)
	}
	if len(line) == 1 {
		return Distance(p, line[0])
	}
	min := math.Inf(1)
	for i := 0; i < len(line)-1; i++ {
		if d := DistanceToSegment(p, line[i], line[i+1]); d < min {
			min = d
		}
	}
	return min
}
