// Package train implements the spatial-CV model trainer: it joins the
// pair table to the extracted covariates, constructs leakage-free
// spatial folds from the pre-assigned sample groups, runs wrapper-based
// forward feature selection over a hyperparameter grid, refits the
// winning model, and writes the full-surface prediction raster.
package train

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/folds"
	"github.com/evomont/landgen-go/internal/gbm"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/pipeline"
	"github.com/evomont/landgen-go/internal/raster"
	"github.com/evomont/landgen-go/internal/repository"
)

// Trainer is the stage implementation for model training.
type Trainer struct {
	db  *sql.DB
	cfg *config.Config
}

// StageName is the registry name of this stage.
const StageName = "train"

func init() {
	pipeline.Register(StageName, func(db *sql.DB, cfg *config.Config) pipeline.Stage {
		return &Trainer{db: db, cfg: cfg}
	})
}

// Name implements pipeline.Stage.
func (t *Trainer) Name() string { return StageName }

// Run implements pipeline.Stage. run.Variant selects which extraction's
// covariates the model is trained on.
func (t *Trainer) Run(ctx context.Context, run *models.StageRun) (string, error) {
	variant := run.Variant
	if variant != models.VariantStraight && variant != models.VariantLCP {
		return "", fmt.Errorf("unknown training variant %q", variant)
	}

	covRepo := repository.NewCovariateRepository(t.db)
	rows, err := covRepo.TrainingRows(variant, t.cfg.MaxGeoDist)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no pairs within %g projection units; nothing to train on", t.cfg.MaxGeoDist)
	}

	layers, err := covRepo.Layers(variant)
	if err != nil {
		return "", err
	}
	candidates := append(append([]string(nil), layers...), GeoDistFeature)
	log.Printf("[%s] %d pairs (geo_dist <= %g), %d candidate covariates",
		StageName, len(rows), t.cfg.MaxGeoDist, len(candidates))

	cv, err := folds.Build(rows, t.cfg.FoldCount)
	if err != nil {
		return "", err
	}

	grid := Grid{
		Trees:     t.cfg.Trees,
		Shrinkage: t.cfg.Shrinkage,
		Depth:     t.cfg.Depth,
		MinLeaf:   t.cfg.MinLeaf,
	}

	metricRepo := repository.NewMetricRepository(t.db)
	var pending []models.CVMetric
	record := func(r Result) {
		pending = append(pending, models.CVMetric{
			RunID:      run.ID,
			Variant:    variant,
			Covariates: strings.Join(r.Covariates, ","),
			Trees:      r.Params.Trees,
			Shrinkage:  r.Params.Shrinkage,
			Depth:      r.Params.Depth,
			MinLeaf:    r.Params.MinLeaf,
			RMSE:       r.RMSE,
		})
	}

	best, err := ForwardSelect(ctx, rows, cv, candidates, grid, t.cfg.Workers, record)
	if err != nil {
		return "", err
	}
	for i := range pending {
		if err := metricRepo.Insert(&pending[i]); err != nil {
			return "", err
		}
	}
	log.Printf("[%s] Selected %v params=%+v (cv rmse=%.5f)",
		StageName, best.Covariates, best.Params, best.RMSE)

	// Refit the accepted model on every filtered pair.
	X := featureMatrix(rows, best.Covariates)
	y := make([]float64, len(rows))
	geoDists := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Dgen
		geoDists[i] = r.GeoDist
	}
	model, err := gbm.Fit(X, y, best.Covariates, best.Params)
	if err != nil {
		return "", err
	}

	modelPath := filepath.Join(t.cfg.OutputDir, fmt.Sprintf("model_%s.json", variant))
	if err := model.Save(modelPath); err != nil {
		return "", err
	}

	stack, err := raster.OpenStack(t.cfg.RasterDir)
	if err != nil {
		return "", err
	}
	surfacePath := filepath.Join(t.cfg.OutputDir, fmt.Sprintf("prediction_%s.asc", variant))
	surface, err := PredictSurface(model, stack, Median(geoDists))
	if err != nil {
		return "", err
	}
	if err := surface.Write(surfacePath, raster.UpperHeader); err != nil {
		return "", err
	}
	log.Printf("[%s] Wrote %s and %s", StageName, modelPath, surfacePath)

	if err := repository.NewRunRepository(t.db).UpdateProgress(run.ID, len(rows), len(rows)); err != nil {
		return "", err
	}

	summary, _ := json.Marshal(map[string]interface{}{
		"variant":    variant,
		"pairs":      len(rows),
		"covariates": best.Covariates,
		"params":     best.Params,
		"cvRMSE":     best.RMSE,
		"model":      modelPath,
		"surface":    surfacePath,
	})
	return string(summary), nil
}
