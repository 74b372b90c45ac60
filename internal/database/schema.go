package database

import (
	"database/sql"
	"fmt"
)

// The pipeline database is created fresh per project, so the schema is
// embedded and applied idempotently rather than managed as versioned
// migration files.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS samples (
		id TEXT PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		spatial_group INTEGER NOT NULL DEFAULT -1
	)`,
	`CREATE TABLE IF NOT EXISTS pairs (
		idx INTEGER PRIMARY KEY,
		pair_key TEXT NOT NULL UNIQUE,
		id1 TEXT NOT NULL REFERENCES samples(id),
		id2 TEXT NOT NULL REFERENCES samples(id),
		x1 REAL NOT NULL,
		y1 REAL NOT NULL,
		x2 REAL NOT NULL,
		y2 REAL NOT NULL,
		group1 INTEGER NOT NULL,
		group2 INTEGER NOT NULL,
		geo_dist REAL NOT NULL,
		dgen_euclidean REAL NOT NULL,
		dgen_dps REAL NOT NULL,
		dgen REAL NOT NULL,
		CHECK (id1 < id2)
	)`,
	`CREATE TABLE IF NOT EXISTS covariates (
		pair_key TEXT NOT NULL REFERENCES pairs(pair_key),
		variant TEXT NOT NULL,
		layer TEXT NOT NULL,
		mean_value REAL NOT NULL,
		PRIMARY KEY (pair_key, variant, layer)
	)`,
	`CREATE TABLE IF NOT EXISTS stage_runs (
		id TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		rows_processed INTEGER NOT NULL DEFAULT 0,
		rows_total INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT,
		error_message TEXT,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS cv_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES stage_runs(id),
		variant TEXT NOT NULL,
		covariates TEXT NOT NULL,
		trees INTEGER NOT NULL,
		shrinkage REAL NOT NULL,
		depth INTEGER NOT NULL,
		min_leaf INTEGER NOT NULL,
		rmse REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_covariates_variant ON covariates(variant, pair_key)`,
	`CREATE INDEX IF NOT EXISTS idx_cv_metrics_run ON cv_metrics(run_id)`,
}

func initSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
