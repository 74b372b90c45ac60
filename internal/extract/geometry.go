package extract

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"

	"github.com/evomont/landgen-go/internal/geo"
	"github.com/evomont/landgen-go/internal/lcp"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/raster"
)

// transect is the buffered geometry covariates are averaged under. A
// routed or straight transect buffers a polyline; the degenerate
// fallback buffers the two endpoints directly.
type transect struct {
	line     []geo.Point   // polyline, nil when fallback
	endpoint [2]geo.Point  // fallback buffer centers
	fallback bool
}

// straightTransect is the segment between the pair's endpoints.
func straightTransect(p *models.Pair) transect {
	return transect{line: []geo.Point{{X: p.X1, Y: p.Y1}, {X: p.X2, Y: p.Y2}}}
}

// lcpTransect routes the least-cost path between the endpoints, unless
// they are closer than fallbackDist. Below that threshold the start and
// end resolve to the same raster cell and routing is numerically
// undefined, so the union of two endpoint buffers stands in for the
// path (510 m by default, just over one 500 m cell).
func lcpTransect(solver *lcp.Solver, p *models.Pair, fallbackDist, simplifyTol float64) (transect, error) {
	a := geo.Point{X: p.X1, Y: p.Y1}
	b := geo.Point{X: p.X2, Y: p.Y2}

	if geo.Distance(a, b) < fallbackDist {
		return transect{endpoint: [2]geo.Point{a, b}, fallback: true}, nil
	}

	path, err := solver.Path(a, b)
	if err != nil {
		return transect{}, fmt.Errorf("pair %s: %w", p.Key(), err)
	}
	return transect{line: simplifyPath(path, simplifyTol)}, nil
}

// simplifyPath thins the dense cell-by-cell polyline with
// Douglas-Peucker before the per-cell buffer tests. A zero tolerance
// keeps the path as-is.
func simplifyPath(path []geo.Point, tolerance float64) []geo.Point {
	if tolerance <= 0 || len(path) < 3 {
		return path
	}
	ls := make(orb.LineString, len(path))
	for i, p := range path {
		ls[i] = orb.Point{p.X, p.Y}
	}
	ls = simplify.DouglasPeucker(tolerance).Simplify(ls).(orb.LineString)
	out := make([]geo.Point, len(ls))
	for i, pt := range ls {
		out[i] = geo.Point{X: pt[0], Y: pt[1]}
	}
	return out
}

// contains reports whether the projected point lies inside the transect
// buffer of the given radius.
func (t transect) contains(x, y, radius float64) bool {
	p := geo.Point{X: x, Y: y}
	if t.fallback {
		return geo.Distance(p, t.endpoint[0]) <= radius ||
			geo.Distance(p, t.endpoint[1]) <= radius
	}
	return geo.DistanceToPolyline(p, t.line) <= radius
}

// bounds returns the transect's bounding box expanded by radius, used
// to limit the cell scan.
func (t transect) bounds(radius float64) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	pts := t.line
	if t.fallback {
		pts = t.endpoint[:]
	}
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return minX - radius, minY - radius, maxX + radius, maxY + radius
}

// meanUnderBuffer averages every stack layer over the cells whose
// centers fall inside the transect buffer, skipping no-data cells
// per layer. A buffer that covers no finite cell of some layer is an
// error: silently averaging nothing would zero-fill the covariate.
func meanUnderBuffer(stack *raster.Stack, t transect, radius float64) (map[string]float64, error) {
	ref := stack.Ref()
	minX, minY, maxX, maxY := t.bounds(radius)

	// Clip the scan window to the grid.
	loCol := int(math.Floor((minX - ref.Xll) / ref.CellSize))
	hiCol := int(math.Ceil((maxX - ref.Xll) / ref.CellSize))
	loRow := ref.NRows - 1 - int(math.Ceil((maxY-ref.Yll)/ref.CellSize))
	hiRow := ref.NRows - 1 - int(math.Floor((minY-ref.Yll)/ref.CellSize))
	loCol, hiCol = clamp(loCol, 0, ref.NCols-1), clamp(hiCol, 0, ref.NCols-1)
	loRow, hiRow = clamp(loRow, 0, ref.NRows-1), clamp(hiRow, 0, ref.NRows-1)

	sums := make(map[string]float64, len(stack.Names))
	counts := make(map[string]int, len(stack.Names))

	for row := loRow; row <= hiRow; row++ {
		for col := loCol; col <= hiCol; col++ {
			x, y := ref.CellCenter(row, col)
			if !t.contains(x, y, radius) {
				continue
			}
			for _, name := range stack.Names {
				g := stack.Layers[name]
				v := g.At(row, col)
				if g.IsNoData(v) {
					continue
				}
				sums[name] += v
				counts[name]++
			}
		}
	}

	means := make(map[string]float64, len(stack.Names))
	for _, name := range stack.Names {
		if counts[name] == 0 {
			return nil, fmt.Errorf("transect buffer covers no finite cells of layer %s", name)
		}
		means[name] = sums[name] / float64(counts[name])
	}
	return means, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
