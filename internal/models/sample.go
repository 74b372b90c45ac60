package models

// Sample represents one genotyped individual with a projected 2D location.
// Samples are immutable once loaded; anything with missing coordinates or
// a missing locus call never reaches the pair builder.
type Sample struct {
	ID       string  `json:"id" db:"id"`
	X        float64 `json:"x" db:"x"` // projection units (e.g. meters)
	Y        float64 `json:"y" db:"y"`
	Genotype []Locus `json:"genotype" db:"-"`

	// SpatialGroup is the k-means group index assigned by the pair
	// builder (0..K-1), used to construct spatial CV folds.
	SpatialGroup int `json:"spatialGroup" db:"spatial_group"`
}

// Locus is a single diallelic genotype call. Allele codes are opaque
// strings (microsatellite lengths, SNP bases); only equality matters.
type Locus struct {
	Name    string
	AlleleA string
	AlleleB string
}

// Missing reports whether the call is incomplete.
func (l Locus) Missing() bool {
	return l.AlleleA == "" || l.AlleleB == ""
}
