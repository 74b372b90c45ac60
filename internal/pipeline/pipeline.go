// Package pipeline defines the stage abstraction the four batch jobs
// plug into, plus the registry and run bookkeeping shared by all of
// them. Control flow across stages is strictly linear; each stage reads
// the previous stage's persisted output and leaves a stage_runs row
// behind describing what happened.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/models"
	"github.com/evomont/landgen-go/internal/repository"
)

// Stage is one batch job of the pipeline.
type Stage interface {
	// Name returns the stage name used for registration and run records.
	Name() string

	// Run executes the stage. run carries the pre-created bookkeeping
	// row, including the variant for stages that have one; the stage
	// fills in progress via the RunRepository and returns a summary
	// string (JSON) on success.
	Run(ctx context.Context, run *models.StageRun) (summary string, err error)
}

// Factory builds a stage bound to the pipeline database and config.
type Factory func(db *sql.DB, cfg *config.Config) Stage

var registry = make(map[string]Factory)

// Register registers a stage factory under its name. Stage packages
// call this from init; the command wiring imports them blank.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Get returns the stage registered under name, or nil.
func Get(name string, db *sql.DB, cfg *config.Config) Stage {
	factory, ok := registry[name]
	if !ok {
		return nil
	}
	return factory(db, cfg)
}

// Execute runs the named stage end to end: creates the run row, invokes
// the stage, and records completion or failure. The returned error is
// the stage's own error, already persisted on the run.
func Execute(ctx context.Context, db *sql.DB, cfg *config.Config, name, variant string) error {
	stage := Get(name, db, cfg)
	if stage == nil {
		return fmt.Errorf("unknown stage %q", name)
	}

	runs := repository.NewRunRepository(db)
	run, err := runs.Create(name, variant)
	if err != nil {
		return fmt.Errorf("failed to create stage run: %w", err)
	}

	log.Printf("[%s] Starting (run=%s variant=%q)", name, run.ID, variant)
	start := time.Now()

	summary, err := stage.Run(ctx, run)
	if err != nil {
		if markErr := runs.MarkFailed(run.ID, err.Error()); markErr != nil {
			log.Printf("[%s] Failed to record failure: %v", name, markErr)
		}
		return fmt.Errorf("stage %s failed: %w", name, err)
	}

	if err := runs.MarkCompleted(run.ID, summary); err != nil {
		return fmt.Errorf("stage %s: failed to record completion: %w", name, err)
	}
	log.Printf("[%s] Completed in %s", name, time.Since(start).Round(time.Millisecond))
	return nil
}
