package repository

import (
	"database/sql"
	"fmt"

	"github.com/evomont/landgen-go/internal/models"
)

// MetricRepository records cross-validation scores from model search.
type MetricRepository struct {
	db *sql.DB
}

// NewMetricRepository creates a new CV-metric repository.
func NewMetricRepository(db *sql.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// Insert stores one candidate-set/grid-point score.
func (r *MetricRepository) Insert(m *models.CVMetric) error {
	query := `
		INSERT INTO cv_metrics (run_id, variant, covariates, trees, shrinkage, depth, min_leaf, rmse)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query,
		m.RunID, m.Variant, m.Covariates, m.Trees, m.Shrinkage, m.Depth, m.MinLeaf, m.RMSE)
	if err != nil {
		return fmt.Errorf("failed to insert cv metric: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	return nil
}

// BestForRun returns the lowest-RMSE metric recorded for a run.
func (r *MetricRepository) BestForRun(runID string) (*models.CVMetric, error) {
	query := `
		SELECT id, run_id, variant, covariates, trees, shrinkage, depth, min_leaf, rmse
		FROM cv_metrics
		WHERE run_id = ?
		ORDER BY rmse ASC
		LIMIT 1
	`
	m := &models.CVMetric{}
	err := r.db.QueryRow(query, runID).Scan(
		&m.ID, &m.RunID, &m.Variant, &m.Covariates,
		&m.Trees, &m.Shrinkage, &m.Depth, &m.MinLeaf, &m.RMSE)
	if err != nil {
		return nil, fmt.Errorf("failed to get best metric for run %s: %w", runID, err)
	}
	return m, nil
}
