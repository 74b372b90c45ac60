package train

import (
	"fmt"
	"sort"

	"github.com/evomont/landgen-go/internal/gbm"
	"github.com/evomont/landgen-go/internal/raster"
)

// PredictSurface applies the fitted model per cell across the covariate
// stack, producing the full-resolution prediction raster. Geographic
// distance is pairwise and therefore undefined for a single cell, so
// when the model selected it the layer is held constant at geoDistFill
// (the training sample's median). Cells where any selected layer is
// no-data stay no-data.
func PredictSurface(m *gbm.Model, stack *raster.Stack, geoDistFill float64) (*raster.Grid, error) {
	ref := stack.Ref()
	out := ref.Clone()
	for i := range out.Data {
		out.Data[i] = out.NoData
	}

	// Resolve the model's feature order against the stack once.
	layers := make([]*raster.Grid, len(m.Features))
	for j, f := range m.Features {
		if f == GeoDistFeature {
			layers[j] = nil // constant-fill feature
			continue
		}
		g, ok := stack.Layers[f]
		if !ok {
			return nil, fmt.Errorf("train: selected covariate %s not in raster stack", f)
		}
		layers[j] = g
	}

	x := make([]float64, len(m.Features))
	for row := 0; row < ref.NRows; row++ {
	cells:
		for col := 0; col < ref.NCols; col++ {
			for j, g := range layers {
				if g == nil {
					x[j] = geoDistFill
					continue
				}
				v := g.At(row, col)
				if g.IsNoData(v) {
					continue cells
				}
				x[j] = v
			}
			out.Set(row, col, m.Predict(x))
		}
	}
	return out, nil
}

// Median returns the median of vs; used for the constant
// geographic-distance fill.
func Median(vs []float64) float64 {
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
