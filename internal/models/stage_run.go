package models

// Stage run statuses.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// StageRun records one execution of a pipeline stage: every batch job
// leaves an auditable row behind, whether it finished or died.
type StageRun struct {
	ID            string  `json:"id" db:"id"` // UUID
	Stage         string  `json:"stage" db:"stage"`
	Variant       string  `json:"variant,omitempty" db:"variant"`
	Status        string  `json:"status" db:"status"`
	RowsProcessed int     `json:"rowsProcessed" db:"rows_processed"`
	RowsTotal     int     `json:"rowsTotal" db:"rows_total"`
	SummaryJSON   string  `json:"summaryJson,omitempty" db:"summary_json"`
	ErrorMessage  string  `json:"errorMessage,omitempty" db:"error_message"`
	StartedAt     string  `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt   *string `json:"completedAt,omitempty" db:"completed_at"`
}

// CVMetric records the cross-validated score of one candidate covariate
// set under one hyperparameter combination during model search.
type CVMetric struct {
	ID         int64   `json:"id" db:"id"`
	RunID      string  `json:"runId" db:"run_id"`
	Variant    string  `json:"variant" db:"variant"`
	Covariates string  `json:"covariates" db:"covariates"` // comma-joined, sorted
	Trees      int     `json:"trees" db:"trees"`
	Shrinkage  float64 `json:"shrinkage" db:"shrinkage"`
	Depth      int     `json:"depth" db:"depth"`
	MinLeaf    int     `json:"minLeaf" db:"min_leaf"`
	RMSE       float64 `json:"rmse" db:"rmse"`
}
