// Package extract implements the transect covariate extractor: for each
// pair it builds a geometry between the two sample locations (straight
// segment or least-cost path), buffers it by a fixed radius, and
// averages every covariate raster under the buffer.
//
// Per-pair work is independent and order-insensitive. It is scattered
// across a fixed worker pool and gathered by canonical pair key; each
// worker opens its own raster stack (and resistance grid) from the file
// paths, never sharing live handles across workers. Any single pair
// failure aborts the whole batch.
package extract

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/lcp"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/pipeline"
	"github.com/evomont/landgen-go/internal/raster"
	"github.com/evomont/landgen-go/internal/repository"
)

// Extractor is the stage implementation for covariate extraction.
type Extractor struct {
	db  *sql.DB
	cfg *config.Config
}

// StageName is the registry name of this stage.
const StageName = "extract"

func init() {
	pipeline.Register(StageName, func(db *sql.DB, cfg *config.Config) pipeline.Stage {
		return &Extractor{db: db, cfg: cfg}
	})
}

// Name implements pipeline.Stage.
func (e *Extractor) Name() string { return StageName }

// Run implements pipeline.Stage. run.Variant selects straight-line or
// least-cost-path geometry.
func (e *Extractor) Run(ctx context.Context, run *models.StageRun) (string, error) {
	variant := run.Variant
	if variant != models.VariantStraight && variant != models.VariantLCP {
		return "", fmt.Errorf("unknown extraction variant %q", variant)
	}

	pairRepo := repository.NewPairRepository(e.db)
	pairs, err := pairRepo.ListPairs()
	if err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		return "", fmt.Errorf("no pairs found; run the pairs stage first")
	}

	// Open the stack once up front so misconfigured projects fail
	// before any worker spins up. Workers still open their own copies.
	probe, err := raster.OpenStack(e.cfg.RasterDir)
	if err != nil {
		return "", err
	}
	log.Printf("[%s] Extracting %d layers for %d pairs (variant=%s, workers=%d)",
		StageName, len(probe.Names), len(pairs), variant, e.cfg.Workers)

	rows, err := e.extractAll(ctx, pairs, variant)
	if err != nil {
		return "", err
	}

	covRepo := repository.NewCovariateRepository(e.db)
	if err := covRepo.ReplaceVariant(variant, rows); err != nil {
		return "", err
	}
	if err := repository.NewRunRepository(e.db).UpdateProgress(run.ID, len(rows), len(pairs)); err != nil {
		return "", err
	}

	summary, _ := json.Marshal(map[string]interface{}{
		"variant": variant,
		"pairs":   len(rows),
		"layers":  probe.Names,
	})
	return string(summary), nil
}

// extractAll scatters the pairs across the worker pool and gathers one
// covariate row per pair. Results land in a slice indexed by pair
// position, so completion order cannot affect the output; the join back
// to the pair table is by key regardless.
func (e *Extractor) extractAll(ctx context.Context, pairs []models.Pair, variant string) ([]models.CovariateRow, error) {
	results := make([]models.CovariateRow, len(pairs))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < e.cfg.Workers; w++ {
		g.Go(func() error {
			// Per-worker resources, opened from paths.
			stack, err := raster.OpenStack(e.cfg.RasterDir)
			if err != nil {
				return err
			}
			var solver *lcp.Solver
			if variant == models.VariantLCP {
				res, err := raster.Read(e.cfg.ResistanceASC)
				if err != nil {
					return err
				}
				if solver, err = lcp.NewSolver(res); err != nil {
					return err
				}
			}

			for i := range jobs {
				row, err := e.extractOne(stack, solver, &pairs[i], variant)
				if err != nil {
					return err
				}
				results[i] = row
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range pairs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Extractor) extractOne(stack *raster.Stack, solver *lcp.Solver, p *models.Pair, variant string) (models.CovariateRow, error) {
	var t transect
	var err error
	switch variant {
	case models.VariantStraight:
		t = straightTransect(p)
	case models.VariantLCP:
		t, err = lcpTransect(solver, p, e.cfg.LCPFallbackDist, e.cfg.SimplifyTolerance)
		if err != nil {
			return models.CovariateRow{}, err
		}
	}

	means, err := meanUnderBuffer(stack, t, e.cfg.BufferRadius)
	if err != nil {
		return models.CovariateRow{}, fmt.Errorf("pair %s: %w", p.Key(), err)
	}
	return models.CovariateRow{PairKey: p.Key(), Variant: variant, Values: means}, nil
}
