package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/evomont/landgen-go/internal/models"
)

// RunRepository handles database operations for stage runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new stage-run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new running stage-run row and returns it.
func (r *RunRepository) Create(stage, variant string) (*models.StageRun, error) {
	run := &models.StageRun{
		ID:      uuid.NewString(),
		Stage:   stage,
		Variant: variant,
		Status:  models.RunStatusRunning,
	}

	query := `
		INSERT INTO stage_runs (id, stage, variant, status)
		VALUES (?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, run.ID, run.Stage, run.Variant, run.Status); err != nil {
		return nil, fmt.Errorf("failed to insert stage run: %w", err)
	}
	return run, nil
}

// UpdateProgress records processed/total row counts for a run.
func (r *RunRepository) UpdateProgress(id string, processed, total int) error {
	query := `
		UPDATE stage_runs
		SET rows_processed = ?, rows_total = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, processed, total, id)
	return err
}

// MarkCompleted marks a run completed with a summary payload.
func (r *RunRepository) MarkCompleted(id, summaryJSON string) error {
	query := `
		UPDATE stage_runs
		SET status = ?, summary_json = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.RunStatusCompleted, summaryJSON, id)
	return err
}

// MarkFailed marks a run failed with an error message.
func (r *RunRepository) MarkFailed(id, errorMsg string) error {
	query := `
		UPDATE stage_runs
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(query, models.RunStatusFailed, errorMsg, id)
	return err
}

// GetByID retrieves a stage run.
func (r *RunRepository) GetByID(id string) (*models.StageRun, error) {
	query := `
		SELECT id, stage, variant, status, rows_processed, rows_total,
		       COALESCE(summary_json, ''), COALESCE(error_message, ''),
		       started_at, completed_at
		FROM stage_runs
		WHERE id = ?
	`

	run := &models.StageRun{}
	var completedAt sql.NullString
	err := r.db.QueryRow(query, id).Scan(
		&run.ID, &run.Stage, &run.Variant, &run.Status,
		&run.RowsProcessed, &run.RowsTotal,
		&run.SummaryJSON, &run.ErrorMessage,
		&run.StartedAt, &completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage run %s: %w", id, err)
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.String
	}
	return run, nil
}
