// Package pairs implements the pairwise dataset builder: per-individual
// genotype + coordinate records in, one row per unordered sample pair
// out, carrying geographic distance, the two raw genetic-distance
// metrics, the composite regression target, and the spatial group
// labels later used for cross-validation folds.
package pairs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/folds"
	"github.com/evomont/landgen-go/internal/genetics"
	"github.com/evomont/landgen-go/internal/geo"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/pipeline"
	"github.com/evomont/landgen-go/internal/repository"
)

// Builder is the stage implementation for the pairwise dataset.
type Builder struct {
	db  *sql.DB
	cfg *config.Config
}

// StageName is the registry name of this stage.
const StageName = "pairs"

func init() {
	pipeline.Register(StageName, func(db *sql.DB, cfg *config.Config) pipeline.Stage {
		return &Builder{db: db, cfg: cfg}
	})
}

// Name implements pipeline.Stage.
func (b *Builder) Name() string { return StageName }

// Run implements pipeline.Stage.
func (b *Builder) Run(ctx context.Context, run *models.StageRun) (string, error) {
	samples, skipped, err := genetics.LoadSamples(b.cfg.SamplesCSV)
	if err != nil {
		return "", err
	}
	if len(samples) < 2 {
		return "", fmt.Errorf("need at least 2 usable samples, got %d", len(samples))
	}
	log.Printf("[%s] Loaded %d samples (%d excluded)", StageName, len(samples), skipped)

	// Spatial groups on raw coordinates. Assigned once here and reused
	// by every model run, so straight-line and LCP results compare on
	// identical folds.
	points := make([]geo.Point, len(samples))
	for i, s := range samples {
		points[i] = geo.Point{X: s.X, Y: s.Y}
	}
	groups, err := folds.KMeans(points, b.cfg.FoldCount, b.cfg.Seed)
	if err != nil {
		return "", err
	}
	for i := range samples {
		samples[i].SpatialGroup = groups[i]
	}

	built, err := BuildPairs(samples)
	if err != nil {
		return "", err
	}
	log.Printf("[%s] Built %d pairs from %d samples", StageName, len(built), len(samples))

	repo := repository.NewPairRepository(b.db)
	if err := repo.ReplaceDataset(samples, built); err != nil {
		return "", err
	}
	if err := repository.NewRunRepository(b.db).UpdateProgress(run.ID, len(built), len(built)); err != nil {
		return "", err
	}

	summary, _ := json.Marshal(map[string]interface{}{
		"samples":  len(samples),
		"excluded": skipped,
		"pairs":    len(built),
		"groups":   b.cfg.FoldCount,
	})
	return string(summary), nil
}

// BuildPairs materializes the lower triangle of the all-pairs distance
// matrices as one row per unordered pair, with canonical id ordering,
// and attaches the composite genetic distance.
func BuildPairs(samples []models.Sample) ([]models.Pair, error) {
	freq, err := genetics.BuildFreqMatrix(samples)
	if err != nil {
		return nil, err
	}

	n := len(samples)
	var pairs []models.Pair
	var dEuc, dDps []float64

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := samples[i], samples[j]
			// Canonical order: id1 < id2 lexicographically.
			if b.ID < a.ID {
				a, b = b, a
			}

			p := models.Pair{
				Idx: int64(len(pairs)),
				ID1: a.ID, ID2: b.ID,
				X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y,
				Group1: a.SpatialGroup, Group2: b.SpatialGroup,
				GeoDist: geo.Distance(
					geo.Point{X: a.X, Y: a.Y},
					geo.Point{X: b.X, Y: b.Y},
				),
				DgenEuclidean: freq.EuclideanDistance(i, j),
				DgenDps:       genetics.SharedAlleleDistance(a, b),
			}
			pairs = append(pairs, p)
			dEuc = append(dEuc, p.DgenEuclidean)
			dDps = append(dDps, p.DgenDps)
		}
	}

	composite, err := genetics.CompositeDistance(dEuc, dDps)
	if err != nil {
		return nil, err
	}
	for i := range pairs {
		pairs[i].Dgen = composite[i]
	}
	return pairs, nil
}
