package train

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/evomont/landgen-go/internal/folds"
	"github.com/evomont/landgen-go/internal/gbm"
	"github.com/evomont/landgen-go/internal/models"
)

// GeoDistFeature is the reserved feature name for geographic distance,
// always offered to the model alongside the raster covariates.
const GeoDistFeature = "geo_dist"

// ErrTooFewCovariates indicates fewer than two candidate covariates are
// available, below the minimum subset size feature selection starts from.
var ErrTooFewCovariates = errors.New("train: need at least 2 candidate covariates")

// Grid is the hyperparameter grid searched for every candidate set.
type Grid struct {
	Trees     []int
	Shrinkage []float64
	Depth     []int
	MinLeaf   []int
}

func (g Grid) points() []gbm.Params {
	var pts []gbm.Params
	for _, t := range g.Trees {
		for _, s := range g.Shrinkage {
			for _, d := range g.Depth {
				for _, m := range g.MinLeaf {
					pts = append(pts, gbm.Params{Trees: t, Shrinkage: s, Depth: d, MinLeaf: m})
				}
			}
		}
	}
	return pts
}

// Result is one scored candidate: a covariate set with its best grid
// point and cross-validated RMSE.
type Result struct {
	Covariates []string
	Params     gbm.Params
	RMSE       float64
}

// featureMatrix assembles the row-major design matrix for the given
// feature order. GeoDistFeature reads the pair's geographic distance;
// everything else reads the extracted covariate of that name.
func featureMatrix(rows []models.TrainingRow, features []string) [][]float64 {
	X := make([][]float64, len(rows))
	for i, r := range rows {
		x := make([]float64, len(features))
		for j, f := range features {
			if f == GeoDistFeature {
				x[j] = r.GeoDist
			} else {
				x[j] = r.Covariates[f]
			}
		}
		X[i] = x
	}
	return X
}

// crossValidate returns the RMSE pooled over every held-out prediction
// across the spatial folds for one candidate set and grid point.
func crossValidate(rows []models.TrainingRow, cv []folds.Fold, features []string, p gbm.Params) (float64, error) {
	X := featureMatrix(rows, features)
	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Dgen
	}

	sse, n := 0.0, 0
	for _, fold := range cv {
		if len(fold.Train) == 0 || len(fold.Test) == 0 {
			continue // a group can own no pairs after the distance filter
		}
		trainX := make([][]float64, len(fold.Train))
		trainY := make([]float64, len(fold.Train))
		for k, i := range fold.Train {
			trainX[k], trainY[k] = X[i], y[i]
		}

		m, err := gbm.Fit(trainX, trainY, features, p)
		if err != nil {
			return 0, err
		}
		for _, i := range fold.Test {
			d := m.Predict(X[i]) - y[i]
			sse += d * d
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("train: no held-out predictions; fold construction is degenerate")
	}
	return math.Sqrt(sse / float64(n)), nil
}

// evalGrid scores one candidate set over the whole grid with a bounded
// worker pool and returns the best grid point. Every grid point's score
// is reported through record (serially, after the pool drains).
func evalGrid(ctx context.Context, rows []models.TrainingRow, cv []folds.Fold, features []string, grid Grid, workers int, record func(Result)) (Result, error) {
	pts := grid.points()
	scores := make([]float64, len(pts))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for pi, p := range pts {
		pi, p := pi, p
		g.Go(func() error {
			rmse, err := crossValidate(rows, cv, features, p)
			if err != nil {
				return err
			}
			scores[pi] = rmse // distinct index per task
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	best := Result{RMSE: math.Inf(1)}
	for pi, p := range pts {
		r := Result{Covariates: features, Params: p, RMSE: scores[pi]}
		if record != nil {
			record(r)
		}
		if r.RMSE < best.RMSE {
			best = r
		}
	}
	return best, nil
}

// ForwardSelect runs wrapper-based forward feature selection: every
// size-2 subset seeds the search, then covariates are added greedily
// while the cross-validated RMSE improves. The best size-2 subset is
// always accepted even if nothing beats it — the minimum subset size is
// a floor, not a hope.
func ForwardSelect(ctx context.Context, rows []models.TrainingRow, cv []folds.Fold, candidates []string, grid Grid, workers int, record func(Result)) (Result, error) {
	if len(candidates) < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrTooFewCovariates, len(candidates))
	}

	// Seed: exhaustive size-2 subsets.
	best := Result{RMSE: math.Inf(1)}
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			set := []string{candidates[i], candidates[j]}
			r, err := evalGrid(ctx, rows, cv, set, grid, workers, record)
			if err != nil {
				return Result{}, err
			}
			if r.RMSE < best.RMSE {
				best = r
			}
		}
	}
	log.Printf("[train] Best size-2 subset %v (rmse=%.5f)", best.Covariates, best.RMSE)

	// Greedy growth until no remaining covariate improves the score.
	for {
		selected := make(map[string]bool, len(best.Covariates))
		for _, f := range best.Covariates {
			selected[f] = true
		}

		improved := false
		for _, c := range candidates {
			if selected[c] {
				continue
			}
			set := append(append([]string(nil), best.Covariates...), c)
			sort.Strings(set)
			r, err := evalGrid(ctx, rows, cv, set, grid, workers, record)
			if err != nil {
				return Result{}, err
			}
			if r.RMSE < best.RMSE {
				best = r
				improved = true
			}
		}
		if !improved {
			return best, nil
		}
		log.Printf("[train] Grew to %v (rmse=%.5f)", best.Covariates, best.RMSE)
	}
}
