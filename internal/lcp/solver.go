// Package lcp computes least-cost paths between point pairs over a
// resistance raster.
//
// The resistance grid is turned into an implicit 8-connected conductance
// graph: each edge between adjacent cells carries conductance equal to
// the reciprocal of the mean resistance of its two cells, geometrically
// corrected for the distance between cell centers (diagonal neighbors
// are √2 cell sizes apart). Dijkstra with a lazy decrease-key min-heap
// then yields the minimum cumulative-cost route, reconstructed as a
// polyline of cell centers.
package lcp

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/evomont/landgen-go/internal/geo"
	"github.com/evomont/landgen-go/internal/raster"
)

var (
	// ErrOutsideGrid indicates an endpoint falls outside the resistance
	// raster extent.
	ErrOutsideGrid = errors.New("lcp: point outside resistance raster")

	// ErrImpassableEndpoint indicates an endpoint lands on a no-data or
	// non-positive resistance cell, from which no path can start.
	ErrImpassableEndpoint = errors.New("lcp: endpoint cell is impassable")

	// ErrUnreachable indicates no finite-cost route exists between the
	// two endpoints.
	ErrUnreachable = errors.New("lcp: no least-cost path between endpoints")
)

// Solver routes least-cost paths over one resistance raster. A Solver is
// not safe for concurrent use; each extraction worker builds its own
// from the raster path.
type Solver struct {
	res *raster.Grid
}

// NewSolver validates the resistance grid and wraps it for routing.
func NewSolver(res *raster.Grid) (*Solver, error) {
	if res == nil {
		return nil, fmt.Errorf("lcp: nil resistance grid")
	}
	for _, v := range res.Data {
		if !res.IsNoData(v) && v < 0 {
			return nil, fmt.Errorf("lcp: negative resistance value %g", v)
		}
	}
	return &Solver{res: res}, nil
}

// passable reports whether a cell can be traversed.
func (s *Solver) passable(row, col int) bool {
	v := s.res.At(row, col)
	return !s.res.IsNoData(v) && v > 0
}

// edgeCost returns the traversal cost between two adjacent passable
// cells: center distance divided by the conductance 2/(r1+r2), i.e.
// dist * mean resistance.
func (s *Solver) edgeCost(r1, c1, r2, c2 int) float64 {
	dist := s.res.CellSize
	if r1 != r2 && c1 != c2 {
		dist *= math.Sqrt2
	}
	return dist * (s.res.At(r1, c1) + s.res.At(r2, c2)) / 2
}

// heap entry; stale entries are skipped on pop (lazy decrease-key).
type pqItem struct {
	cell int
	cost float64
}

type pq []pqItem

func (q pq) Len() int            { return len(q) }
func (q pq) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q pq) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x interface{}) { *q = append(*q, x.(pqItem)) }
func (q *pq) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// Path returns the least-cost route from a to b as a polyline of cell
// centers, with the exact endpoints substituted at both ends. The
// search terminates as soon as the target cell is settled.
func (s *Solver) Path(a, b geo.Point) ([]geo.Point, error) {
	srcRow, srcCol, ok := s.res.CellAt(a.X, a.Y)
	if !ok {
		return nil, fmt.Errorf("%w: (%g, %g)", ErrOutsideGrid, a.X, a.Y)
	}
	dstRow, dstCol, ok := s.res.CellAt(b.X, b.Y)
	if !ok {
		return nil, fmt.Errorf("%w: (%g, %g)", ErrOutsideGrid, b.X, b.Y)
	}
	if !s.passable(srcRow, srcCol) {
		return nil, fmt.Errorf("%w: (%g, %g)", ErrImpassableEndpoint, a.X, a.Y)
	}
	if !s.passable(dstRow, dstCol) {
		return nil, fmt.Errorf("%w: (%g, %g)", ErrImpassableEndpoint, b.X, b.Y)
	}

	ncols := s.res.NCols
	src := srcRow*ncols + srcCol
	dst := dstRow*ncols + dstCol
	if src == dst {
		// Same cell; routing is undefined at sub-cell scale. Callers are
		// expected to have applied the short-distance fallback already.
		return []geo.Point{a, b}, nil
	}

	dist := make([]float64, len(s.res.Data))
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	prev := make([]int, len(s.res.Data))
	for i := range prev {
		prev[i] = -1
	}
	settled := make([]bool, len(s.res.Data))

	dist[src] = 0
	q := &pq{{cell: src, cost: 0}}
	heap.Init(q)

	for q.Len() > 0 {
		it := heap.Pop(q).(pqItem)
		if settled[it.cell] {
			continue // stale entry
		}
		settled[it.cell] = true
		if it.cell == dst {
			break
		}

		row, col := it.cell/ncols, it.cell%ncols
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				nr, nc := row+dr, col+dc
				if nr < 0 || nr >= s.res.NRows || nc < 0 || nc >= ncols {
					continue
				}
				if !s.passable(nr, nc) {
					continue
				}
				next := nr*ncols + nc
				if settled[next] {
					continue
				}
				alt := it.cost + s.edgeCost(row, col, nr, nc)
				if alt < dist[next] {
					dist[next] = alt
					prev[next] = it.cell
					heap.Push(q, pqItem{cell: next, cost: alt})
				}
			}
		}
	}

	if math.IsInf(dist[dst], 1) {
		return nil, fmt.Errorf("%w: (%g,%g) -> (%g,%g)", ErrUnreachable, a.X, a.Y, b.X, b.Y)
	}

	// Reconstruct dst -> src, then reverse.
	var cells []int
	for cell := dst; cell != -1; cell = prev[cell] {
		cells = append(cells, cell)
	}
	path := make([]geo.Point, len(cells))
	for i, cell := range cells {
		x, y := s.res.CellCenter(cell/ncols, cell%ncols)
		path[len(cells)-1-i] = geo.Point{X: x, Y: y}
	}
	path[0] = a
	path[len(path)-1] = b
	return path, nil
}
