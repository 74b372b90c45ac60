package models

// CovariateRow holds the per-layer mean covariate values extracted under
// one pair's transect buffer. Values are keyed by raster layer name and
// joined back to the pair table on PairKey.
type CovariateRow struct {
	PairKey string             `json:"pairKey" db:"pair_key"`
	Variant string             `json:"variant" db:"variant"` // "straight" or "lcp"
	Values  map[string]float64 `json:"values" db:"-"`
}

// Extraction variants.
const (
	VariantStraight = "straight"
	VariantLCP      = "lcp"
)

// TrainingRow is one fully joined observation handed to the trainer:
// covariate means plus geographic distance, target, and the endpoint
// spatial groups needed for fold construction.
type TrainingRow struct {
	PairKey    string
	GeoDist    float64
	Dgen       float64
	Group1     int
	Group2     int
	Covariates map[string]float64
}
