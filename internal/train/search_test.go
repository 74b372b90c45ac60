package train

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evomont/landgen-go/internal/folds"
	"github.com/evomont/landgen-go/internal/gbm"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/raster"
)

var tinyGrid = Grid{Trees: []int{50}, Shrinkage: []float64{0.1}, Depth: []int{2}, MinLeaf: []int{5}}

// syntheticRows builds rows whose target tracks the "good" covariate
// exactly while "noise1"/"noise2" carry nothing.
func syntheticRows(n, groups int, seed int64) []models.TrainingRow {
	rng := rand.New(rand.NewSource(seed))
	rows := make([]models.TrainingRow, n)
	for i := range rows {
		good := rng.Float64()
		g := i % groups
		rows[i] = models.TrainingRow{
			GeoDist: rng.Float64() * 40000,
			Dgen:    good,
			Group1:  g,
			Group2:  g,
			Covariates: map[string]float64{
				"good":   good,
				"noise1": rng.Float64(),
				"noise2": rng.Float64(),
			},
		}
	}
	return rows
}

func TestFeatureMatrix(t *testing.T) {
	rows := []models.TrainingRow{
		{GeoDist: 1200, Covariates: map[string]float64{"elev": 7, "forest": 0.3}},
		{GeoDist: 800, Covariates: map[string]float64{"elev": 2, "forest": 0.9}},
	}
	X := featureMatrix(rows, []string{"forest", GeoDistFeature, "elev"})
	assert.Equal(t, [][]float64{{0.3, 1200, 7}, {0.9, 800, 2}}, X)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 0.0, Median(nil))

	// Input untouched.
	vs := []float64{9, 1, 5}
	Median(vs)
	assert.Equal(t, []float64{9, 1, 5}, vs)
}

func TestCrossValidateScoresHeldOutGroups(t *testing.T) {
	rows := syntheticRows(200, 4, 1)
	cv, err := folds.Build(rows, 4)
	require.NoError(t, err)

	rmseGood, err := crossValidate(rows, cv, []string{"good", "noise1"}, tinyGrid.points()[0])
	require.NoError(t, err)
	rmseNoise, err := crossValidate(rows, cv, []string{"noise1", "noise2"}, tinyGrid.points()[0])
	require.NoError(t, err)

	assert.Less(t, rmseGood, rmseNoise, "informative covariate must score better than pure noise")
}

func TestEvalGridRecordsEveryPoint(t *testing.T) {
	rows := syntheticRows(100, 4, 2)
	cv, err := folds.Build(rows, 4)
	require.NoError(t, err)

	grid := Grid{Trees: []int{20, 50}, Shrinkage: []float64{0.1}, Depth: []int{2, 3}, MinLeaf: []int{5}}
	var recorded []Result
	best, err := evalGrid(context.Background(), rows, cv, []string{"good", "noise1"}, grid, 2, func(r Result) {
		recorded = append(recorded, r)
	})
	require.NoError(t, err)

	require.Len(t, recorded, 4, "one record per grid point")
	for _, r := range recorded {
		assert.GreaterOrEqual(t, r.RMSE, best.RMSE)
	}
}

func TestForwardSelectFindsInformativeCovariate(t *testing.T) {
	rows := syntheticRows(200, 4, 3)
	cv, err := folds.Build(rows, 4)
	require.NoError(t, err)

	best, err := ForwardSelect(context.Background(), rows, cv,
		[]string{"good", "noise1", "noise2", GeoDistFeature}, tinyGrid, 2, nil)
	require.NoError(t, err)

	assert.Contains(t, best.Covariates, "good")
	assert.GreaterOrEqual(t, len(best.Covariates), 2, "selection never shrinks below two covariates")
	assert.Less(t, best.RMSE, 0.2)
}

func TestForwardSelectTooFewCandidates(t *testing.T) {
	_, err := ForwardSelect(context.Background(), nil, nil, []string{"only"}, tinyGrid, 1, nil)
	require.ErrorIs(t, err, ErrTooFewCovariates)
}

func TestPredictSurface(t *testing.T) {
	// One covariate layer; the model is fit on that layer's values so the
	// prediction should reproduce them closely, cell by cell.
	elev := raster.NewGrid(4, 4, 0, 0, 100, -9999)
	for i := range elev.Data {
		elev.Data[i] = float64(i)
	}
	elev.Set(2, 2, -9999)
	stack := &raster.Stack{Names: []string{"elev"}, Layers: map[string]*raster.Grid{"elev": elev}}

	var X [][]float64
	var y []float64
	for _, v := range elev.Data {
		if elev.IsNoData(v) {
			continue
		}
		X = append(X, []float64{v, 5000})
		y = append(y, v/20)
	}
	m, err := gbm.Fit(X, y, []string{"elev", GeoDistFeature}, gbm.Params{Trees: 100, Shrinkage: 0.1, Depth: 2, MinLeaf: 1})
	require.NoError(t, err)

	out, err := PredictSurface(m, stack, 5000)
	require.NoError(t, err)
	require.True(t, out.SameShape(elev))

	assert.True(t, out.IsNoData(out.At(2, 2)), "no-data input cells stay no-data")
	assert.InDelta(t, 0.0/20, out.At(0, 0), 0.1)
	assert.InDelta(t, 15.0/20, out.At(3, 3), 0.1)
}

func TestPredictSurfaceMissingLayer(t *testing.T) {
	elev := raster.NewGrid(2, 2, 0, 0, 100, -9999)
	stack := &raster.Stack{Names: []string{"elev"}, Layers: map[string]*raster.Grid{"elev": elev}}

	m := &gbm.Model{Features: []string{"slope"}}
	_, err := PredictSurface(m, stack, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slope")
}
