package models

// Pair represents one unordered pair of samples. IDs are canonicalized so
// that ID1 < ID2 lexicographically; every table that joins back to pairs
// uses the same Key, never row position.
type Pair struct {
	Idx int64 `json:"idx" db:"idx"` // stable row index assigned by the builder

	ID1 string  `json:"id1" db:"id1"`
	ID2 string  `json:"id2" db:"id2"`
	X1  float64 `json:"x1" db:"x1"`
	Y1  float64 `json:"y1" db:"y1"`
	X2  float64 `json:"x2" db:"x2"`
	Y2  float64 `json:"y2" db:"y2"`

	// Group1/Group2 are the spatial groups of the two endpoints.
	Group1 int `json:"group1" db:"group1"`
	Group2 int `json:"group2" db:"group2"`

	// GeoDist is the Euclidean distance between endpoints in projection units.
	GeoDist float64 `json:"geoDist" db:"geo_dist"`

	// DgenEuclidean and DgenDps are the two raw genetic-distance metrics.
	DgenEuclidean float64 `json:"dgenEuclidean" db:"dgen_euclidean"`
	DgenDps       float64 `json:"dgenDps" db:"dgen_dps"`

	// Dgen is the PCA composite of the two metrics, rescaled to [0,1]
	// over the working dataset. This is the regression target.
	Dgen float64 `json:"dgen" db:"dgen"`
}

// Key returns the canonical join key for the pair.
func (p *Pair) Key() string {
	return p.ID1 + "|" + p.ID2
}

// PairKey builds the canonical key for two sample IDs in either order.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}
