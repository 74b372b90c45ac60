package repository

import (
	"database/sql"
	"fmt"

	"github.com/evomont/landgen-go/internal/database"
	"github.com/evomont/landgen-go/internal/models"
)

// PairRepository handles database operations for samples and pairs.
type PairRepository struct {
	db *sql.DB
}

// NewPairRepository creates a new pair repository.
func NewPairRepository(db *sql.DB) *PairRepository {
	return &PairRepository{db: db}
}

// ReplaceDataset atomically replaces the samples and pairs tables with a
// freshly built dataset. The builder is a full-recompute stage; partial
// pair tables from an aborted run must never survive.
func (r *PairRepository) ReplaceDataset(samples []models.Sample, pairs []models.Pair) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM covariates"); err != nil {
			return fmt.Errorf("failed to clear covariates: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM pairs"); err != nil {
			return fmt.Errorf("failed to clear pairs: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM samples"); err != nil {
			return fmt.Errorf("failed to clear samples: %w", err)
		}

		sampleStmt, err := tx.Prepare(`
			INSERT INTO samples (id, x, y, spatial_group) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare sample insert: %w", err)
		}
		defer sampleStmt.Close()

		for _, s := range samples {
			if _, err := sampleStmt.Exec(s.ID, s.X, s.Y, s.SpatialGroup); err != nil {
				return fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
			}
		}

		pairStmt, err := tx.Prepare(`
			INSERT INTO pairs (
				idx, pair_key, id1, id2, x1, y1, x2, y2,
				group1, group2, geo_dist, dgen_euclidean, dgen_dps, dgen
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare pair insert: %w", err)
		}
		defer pairStmt.Close()

		for i := range pairs {
			p := &pairs[i]
			if _, err := pairStmt.Exec(
				p.Idx, p.Key(), p.ID1, p.ID2, p.X1, p.Y1, p.X2, p.Y2,
				p.Group1, p.Group2, p.GeoDist, p.DgenEuclidean, p.DgenDps, p.Dgen,
			); err != nil {
				return fmt.Errorf("failed to insert pair %s: %w", p.Key(), err)
			}
		}
		return nil
	})
}

// ListPairs returns all pairs in idx order.
func (r *PairRepository) ListPairs() ([]models.Pair, error) {
	query := `
		SELECT idx, id1, id2, x1, y1, x2, y2, group1, group2,
		       geo_dist, dgen_euclidean, dgen_dps, dgen
		FROM pairs
		ORDER BY idx
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []models.Pair
	for rows.Next() {
		var p models.Pair
		if err := rows.Scan(
			&p.Idx, &p.ID1, &p.ID2, &p.X1, &p.Y1, &p.X2, &p.Y2,
			&p.Group1, &p.Group2, &p.GeoDist, &p.DgenEuclidean, &p.DgenDps, &p.Dgen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// ListSamples returns all samples with their spatial groups.
func (r *PairRepository) ListSamples() ([]models.Sample, error) {
	rows, err := r.db.Query(`SELECT id, x, y, spatial_group FROM samples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []models.Sample
	for rows.Next() {
		var s models.Sample
		if err := rows.Scan(&s.ID, &s.X, &s.Y, &s.SpatialGroup); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
