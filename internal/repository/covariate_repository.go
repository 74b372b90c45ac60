package repository

import (
	"database/sql"
	"fmt"

	"github.com/evomont/landgen-go/internal/database"
	"github.com/evomont/landgen-go/internal/models"
)

// CovariateRepository handles database operations for extracted
// covariate means and the joined training view.
type CovariateRepository struct {
	db *sql.DB
}

// NewCovariateRepository creates a new covariate repository.
func NewCovariateRepository(db *sql.DB) *CovariateRepository {
	return &CovariateRepository{db: db}
}

// ReplaceVariant atomically replaces all covariate rows for one
// extraction variant.
func (r *CovariateRepository) ReplaceVariant(variant string, rows []models.CovariateRow) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM covariates WHERE variant = ?", variant); err != nil {
			return fmt.Errorf("failed to clear %s covariates: %w", variant, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO covariates (pair_key, variant, layer, mean_value)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare covariate insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			for layer, mean := range row.Values {
				if _, err := stmt.Exec(row.PairKey, variant, layer, mean); err != nil {
					return fmt.Errorf("failed to insert covariate %s/%s: %w", row.PairKey, layer, err)
				}
			}
		}
		return nil
	})
}

// Layers returns the distinct layer names stored for a variant.
func (r *CovariateRepository) Layers(variant string) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT DISTINCT layer FROM covariates WHERE variant = ? ORDER BY layer`, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to query layers: %w", err)
	}
	defer rows.Close()

	var layers []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan layer: %w", err)
		}
		layers = append(layers, l)
	}
	return layers, rows.Err()
}

// TrainingRows joins pairs to their extracted covariates for one variant
// on the canonical pair key, filtered to geo_dist <= maxGeoDist. A pair
// missing any layer is an error: a silent partial join is exactly the
// misalignment this schema exists to prevent.
func (r *CovariateRepository) TrainingRows(variant string, maxGeoDist float64) ([]models.TrainingRow, error) {
	layers, err := r.Layers(variant)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no %s covariates extracted yet", variant)
	}

	query := `
		SELECT p.pair_key, p.geo_dist, p.dgen, p.group1, p.group2,
		       c.layer, c.mean_value
		FROM pairs p
		JOIN covariates c ON c.pair_key = p.pair_key
		WHERE c.variant = ? AND p.geo_dist <= ?
		ORDER BY p.idx, c.layer
	`
	rows, err := r.db.Query(query, variant, maxGeoDist)
	if err != nil {
		return nil, fmt.Errorf("failed to query training rows: %w", err)
	}
	defer rows.Close()

	byKey := make(map[string]*models.TrainingRow)
	var order []string
	for rows.Next() {
		var key, layer string
		var geoDist, dgen, mean float64
		var g1, g2 int
		if err := rows.Scan(&key, &geoDist, &dgen, &g1, &g2, &layer, &mean); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		tr, ok := byKey[key]
		if !ok {
			tr = &models.TrainingRow{
				PairKey: key, GeoDist: geoDist, Dgen: dgen,
				Group1: g1, Group2: g2,
				Covariates: make(map[string]float64, len(layers)),
			}
			byKey[key] = tr
			order = append(order, key)
		}
		tr.Covariates[layer] = mean
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.TrainingRow, 0, len(order))
	for _, key := range order {
		tr := byKey[key]
		if len(tr.Covariates) != len(layers) {
			return nil, fmt.Errorf("pair %s has %d of %d covariate layers; extraction is incomplete",
				key, len(tr.Covariates), len(layers))
		}
		out = append(out, *tr)
	}
	return out, nil
}
