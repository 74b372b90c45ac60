// Package surface packages a prediction raster for the UNICOR
// kernel-based connectivity simulator: values normalized to [0,1] and
// re-serialized as an ASCII grid whose 6 header lines use lowercase
// keys, plus the starting-points table and run-configuration file a
// simulation run expects alongside the grid. The grid body is written
// unchanged; only the header casing differs from the generic format.
package surface

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/pipeline"
	"github.com/evomont/landgen-go/internal/raster"
	"github.com/evomont/landgen-go/internal/repository"
)

// Packager is the stage implementation for resistance-surface packaging.
type Packager struct {
	db  *sql.DB
	cfg *config.Config
}

// StageName is the registry name of this stage.
const StageName = "package"

func init() {
	pipeline.Register(StageName, func(db *sql.DB, cfg *config.Config) pipeline.Stage {
		return &Packager{db: db, cfg: cfg}
	})
}

// Name implements pipeline.Stage.
func (p *Packager) Name() string { return StageName }

// Run implements pipeline.Stage.
func (p *Packager) Run(ctx context.Context, run *models.StageRun) (string, error) {
	pred, err := raster.Read(p.cfg.PredictionASC)
	if err != nil {
		return "", err
	}

	normalized, err := pred.Normalize01()
	if err != nil {
		return "", fmt.Errorf("prediction raster %s: %w", p.cfg.PredictionASC, err)
	}

	gridPath := filepath.Join(p.cfg.OutputDir, "resistance.rsg")
	if err := normalized.Write(gridPath, raster.LowerHeader); err != nil {
		return "", err
	}

	samples, err := repository.NewPairRepository(p.db).ListSamples()
	if err != nil {
		return "", err
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples found; run the pairs stage first")
	}

	pointsPath := filepath.Join(p.cfg.OutputDir, "resistance.rsg.xy")
	if err := writeStartingPoints(pointsPath, samples); err != nil {
		return "", err
	}

	ripPath := filepath.Join(p.cfg.OutputDir, "resistance.rip")
	if err := writeRunConfig(ripPath, filepath.Base(gridPath), filepath.Base(pointsPath)); err != nil {
		return "", err
	}

	log.Printf("[%s] Wrote %s, %s, %s", StageName, gridPath, pointsPath, ripPath)

	summary, _ := json.Marshal(map[string]interface{}{
		"grid":   gridPath,
		"points": pointsPath,
		"config": ripPath,
	})
	return string(summary), nil
}

// writeStartingPoints writes the simulator's XY table: one source point
// per sample, in the same projected CRS as the grid.
func writeStartingPoints(path string, samples []models.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create starting points %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "X,Y")
	for _, s := range samples {
		fmt.Fprintf(w, "%g,%g\n", s.X, s.Y)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write starting points %s: %w", path, err)
	}
	return nil
}

// writeRunConfig writes the minimal key-value run file referencing the
// packaged grid and points, so a simulation can start from the output
// directory without hand-editing paths.
func writeRunConfig(path, gridName, pointsName string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create run config %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	lines := []string{
		"Grid_Filename\t" + gridName,
		"XY_Filename\t" + pointsName,
		"Use_Direction\tFalse",
		"Use_Resistance\tTrue",
		"Barrier_or_U_Filename\tNone",
		"Use_Maximum_Distance\tTrue",
		"Save_Path_Output\tTrue",
		"Save_IndividualPaths_Output\tFalse",
		"Number_of_Processes\t1",
		"KDE_Function\tGaussian",
		"KDE_GridSize\t2",
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write run config %s: %w", path, err)
	}
	return nil
}
