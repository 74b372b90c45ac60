package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FiniteRange returns the min and max over cells that are neither
// no-data nor non-finite, and whether any such cell exists.
func (g *Grid) FiniteRange() (min, max float64, ok bool) {
	finite := make([]float64, 0, len(g.Data))
	for _, v := range g.Data {
		if !g.IsNoData(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN(), math.NaN(), false
	}
	return floats.Min(finite), floats.Max(finite), true
}

// Normalize01 returns a copy of the grid with every finite cell mapped
// to (v-min)/(max-min) over the global finite range. No-data cells are
// preserved. A flat raster (max == min) is reported as ErrFlatRaster
// rather than silently producing NaN.
func (g *Grid) Normalize01() (*Grid, error) {
	min, max, ok := g.FiniteRange()
	if !ok || max == min {
		return nil, ErrFlatRaster
	}

	out := g.Clone()
	for i, v := range out.Data {
		if out.IsNoData(v) {
			continue
		}
		out.Data[i] = (v - min) / (max - min)
	}
	return out, nil
}
