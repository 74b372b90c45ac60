package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/geo"
	"github.com/evomont/landgen-go/internal/lcp"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/raster"
)

// testStack writes a 4x4, 100 m grid per layer into a temp dir and
// opens it as a stack.
func testStack(t *testing.T, layers map[string]func(row, col int) float64) (*raster.Stack, string) {
	t.Helper()
	dir := t.TempDir()
	for name, value := range layers {
		g := raster.NewGrid(4, 4, 0, 0, 100, -9999)
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				g.Set(row, col, value(row, col))
			}
		}
		require.NoError(t, g.Write(filepath.Join(dir, name+".asc"), raster.UpperHeader))
	}
	s, err := raster.OpenStack(dir)
	require.NoError(t, err)
	return s, dir
}

func TestStraightTransectMean(t *testing.T) {
	// Top-row cell values 2, 4, 9, 100; a thin buffer along the first
	// three centers averages exactly those.
	stack, _ := testStack(t, map[string]func(int, int) float64{
		"elev": func(row, col int) float64 {
			if row != 0 {
				return -1
			}
			return []float64{2, 4, 9, 100}[col]
		},
	})

	p := &models.Pair{ID1: "a", ID2: "b", X1: 50, Y1: 350, X2: 250, Y2: 350}
	means, err := meanUnderBuffer(stack, straightTransect(p), 10)
	require.NoError(t, err)
	assert.InDelta(t, 5, means["elev"], 1e-12)
}

func TestMeanUnderBufferSkipsNoData(t *testing.T) {
	stack, _ := testStack(t, map[string]func(int, int) float64{
		"elev": func(row, col int) float64 {
			if row == 0 && col == 1 {
				return -9999
			}
			if row != 0 {
				return -1
			}
			return []float64{2, 4, 9, 100}[col]
		},
	})

	p := &models.Pair{ID1: "a", ID2: "b", X1: 50, Y1: 350, X2: 250, Y2: 350}
	means, err := meanUnderBuffer(stack, straightTransect(p), 10)
	require.NoError(t, err)
	assert.InDelta(t, 5.5, means["elev"], 1e-12, "no-data cell drops out of the mean")
}

func TestMeanUnderBufferNoFiniteCells(t *testing.T) {
	stack, _ := testStack(t, map[string]func(int, int) float64{
		"void": func(int, int) float64 { return -9999 },
	})

	p := &models.Pair{ID1: "a", ID2: "b", X1: 50, Y1: 350, X2: 250, Y2: 350}
	_, err := meanUnderBuffer(stack, straightTransect(p), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no finite cells")
}

func TestLCPTransectFallbackBelowThreshold(t *testing.T) {
	// Endpoints 100 m apart with a 510 m threshold: routing is skipped
	// and the transect is the union of the two endpoint buffers.
	p := &models.Pair{ID1: "a", ID2: "b", X1: 100, Y1: 100, X2: 200, Y2: 100}
	tr, err := lcpTransect(nil, p, 510, 0)
	require.NoError(t, err)
	require.True(t, tr.fallback)

	assert.True(t, tr.contains(150, 100, 60), "between the endpoints, inside a buffer")
	assert.True(t, tr.contains(100, 150, 60))
	assert.False(t, tr.contains(150, 100, 40), "between the endpoints but outside both buffers")
}

func TestLCPTransectRoutes(t *testing.T) {
	res := raster.NewGrid(10, 10, 0, 0, 100, -9999)
	for i := range res.Data {
		res.Data[i] = 1
	}
	solver, err := lcp.NewSolver(res)
	require.NoError(t, err)

	p := &models.Pair{ID1: "a", ID2: "b", X1: 150, Y1: 150, X2: 850, Y2: 850}
	tr, err := lcpTransect(solver, p, 510, 0)
	require.NoError(t, err)
	require.False(t, tr.fallback)
	require.GreaterOrEqual(t, len(tr.line), 2)
	assert.Equal(t, geo.Point{X: 150, Y: 150}, tr.line[0])
	assert.Equal(t, geo.Point{X: 850, Y: 850}, tr.line[len(tr.line)-1])
}

func TestSimplifyPathKeepsEndpoints(t *testing.T) {
	// A nearly straight dense polyline collapses to its endpoints.
	var path []geo.Point
	for i := 0; i <= 100; i++ {
		path = append(path, geo.Point{X: float64(i), Y: 0.001 * float64(i%2)})
	}
	out := simplifyPath(path, 1)
	require.Len(t, out, 2)
	assert.Equal(t, path[0], out[0])
	assert.Equal(t, path[len(path)-1], out[1])

	assert.Len(t, simplifyPath(path, 0), len(path), "zero tolerance is a no-op")
}

func TestExtractAllIdempotentAcrossWorkerCounts(t *testing.T) {
	_, dir := testStack(t, map[string]func(int, int) float64{
		"elev":   func(row, col int) float64 { return float64(row*4 + col) },
		"forest": func(row, col int) float64 { return float64(col) * 0.1 },
	})

	var pairs []models.Pair
	centers := []geo.Point{{X: 50, Y: 350}, {X: 250, Y: 350}, {X: 150, Y: 150}, {X: 350, Y: 50}}
	for i := 0; i < len(centers); i++ {
		for j := i + 1; j < len(centers); j++ {
			pairs = append(pairs, models.Pair{
				ID1: string(rune('a' + i)), ID2: string(rune('a' + j)),
				X1: centers[i].X, Y1: centers[i].Y, X2: centers[j].X, Y2: centers[j].Y,
			})
		}
	}

	run := func(workers int) []models.CovariateRow {
		e := &Extractor{cfg: &config.Config{
			RasterDir:    dir,
			Workers:      workers,
			BufferRadius: 120,
		}}
		rows, err := e.extractAll(context.Background(), pairs, models.VariantStraight)
		require.NoError(t, err)
		return rows
	}

	serial := run(1)
	parallel := run(4)
	require.Equal(t, serial, parallel, "worker count must not change the output")

	require.Len(t, serial, len(pairs))
	for i, row := range serial {
		assert.Equal(t, pairs[i].Key(), row.PairKey)
		assert.Equal(t, models.VariantStraight, row.Variant)
		assert.Contains(t, row.Values, "elev")
		assert.Contains(t, row.Values, "forest")
	}
}
