package genetics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrSignAssertion indicates the first principal component could not
	// be oriented to correlate positively with both input metrics.
	ErrSignAssertion = errors.New("genetics: composite is not positively correlated with both input metrics")

	// ErrNoVariation indicates the composite has zero range and cannot be
	// rescaled to [0,1].
	ErrNoVariation = errors.New("genetics: composite has no variation across pairs")
)

// CompositeDistance reduces the two genetic-distance metrics to a single
// [0,1] regression target: PCA over the centered and scaled metric
// columns, first component, sign-corrected so it rises with both inputs,
// then min-max normalized over the pairs present.
//
// The sign check is an assertion, not a convention: if after flipping
// the component still correlates non-positively with either metric, the
// dataset is telling us the two metrics disagree and the composite is
// meaningless, so we fail instead of shipping a target with an arbitrary
// orientation.
func CompositeDistance(euclidean, dps []float64) ([]float64, error) {
	n := len(euclidean)
	if n != len(dps) {
		return nil, fmt.Errorf("metric length mismatch: %d vs %d", n, len(dps))
	}
	if n < 3 {
		return nil, fmt.Errorf("need at least 3 pairs for PCA, got %d", n)
	}

	// Standardize both columns (PCA on the correlation matrix).
	data := mat.NewDense(n, 2, nil)
	for col, src := range [][]float64{euclidean, dps} {
		mean, std := stat.MeanStdDev(src, nil)
		if std == 0 {
			return nil, fmt.Errorf("%w: metric column %d is constant", ErrNoVariation, col)
		}
		for i, v := range src {
			data.Set(i, col, (v-mean)/std)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("genetics: principal component decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	// Scores on the first component. Columns are already centered, so
	// the projection is a plain matrix-vector product.
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = data.At(i, 0)*vecs.At(0, 0) + data.At(i, 1)*vecs.At(1, 0)
	}

	// Orient the component to rise with the input metrics, then assert
	// it actually does for both.
	if stat.Correlation(scores, euclidean, nil) < 0 {
		floats.Scale(-1, scores)
	}
	corrEuc := stat.Correlation(scores, euclidean, nil)
	corrDps := stat.Correlation(scores, dps, nil)
	if !(corrEuc > 0 && corrDps > 0) {
		return nil, fmt.Errorf("%w: r_euclidean=%.4f r_dps=%.4f", ErrSignAssertion, corrEuc, corrDps)
	}

	// Min-max rescale over the working dataset only.
	min, max := floats.Min(scores), floats.Max(scores)
	if max == min || math.IsNaN(min) || math.IsNaN(max) {
		return nil, ErrNoVariation
	}
	out := make([]float64, n)
	for i, v := range scores {
		out[i] = (v - min) / (max - min)
	}
	return out, nil
}
