package pairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/evomont/landgen-go/internal/models"
)

func testSamples() []models.Sample {
	mk := func(id string, x, y float64, group int, loci ...[2]string) models.Sample {
		s := models.Sample{ID: id, X: x, Y: y, SpatialGroup: group}
		for i, l := range loci {
			s.Genotype = append(s.Genotype, models.Locus{
				Name: "L" + string(rune('1'+i)), AlleleA: l[0], AlleleB: l[1],
			})
		}
		return s
	}
	return []models.Sample{
		mk("s1", 0, 0, 0, [2]string{"140", "146"}, [2]string{"98", "102"}),
		mk("s2", 3000, 4000, 0, [2]string{"140", "146"}, [2]string{"98", "102"}),
		mk("s3", 10000, 0, 1, [2]string{"140", "150"}, [2]string{"98", "90"}),
		mk("s4", 0, 10000, 1, [2]string{"150", "152"}, [2]string{"90", "92"}),
	}
}

func TestBuildPairsShape(t *testing.T) {
	built, err := BuildPairs(testSamples())
	require.NoError(t, err)
	require.Len(t, built, 6, "4 samples give C(4,2) pairs")

	seen := make(map[string]bool)
	for i, p := range built {
		assert.Equal(t, int64(i), p.Idx)
		assert.Less(t, p.ID1, p.ID2, "pair ids are canonically ordered")
		require.False(t, seen[p.Key()], "pair keys are unique")
		seen[p.Key()] = true
	}
}

func TestBuildPairsGeoDistance(t *testing.T) {
	built, err := BuildPairs(testSamples())
	require.NoError(t, err)

	byKey := make(map[string]models.Pair, len(built))
	for _, p := range built {
		byKey[p.Key()] = p
	}

	assert.InDelta(t, 5000, byKey["s1|s2"].GeoDist, 1e-9, "3-4-5 triangle")
	assert.InDelta(t, 10000, byKey["s1|s3"].GeoDist, 1e-9)
	assert.Equal(t, 0, byKey["s1|s2"].Group1)
	assert.Equal(t, 1, byKey["s3|s4"].Group2)
}

func TestBuildPairsGeneticOrdering(t *testing.T) {
	built, err := BuildPairs(testSamples())
	require.NoError(t, err)

	byKey := make(map[string]models.Pair, len(built))
	for _, p := range built {
		byKey[p.Key()] = p
	}

	// s1 and s2 are genetically identical; s1 and s4 share nothing.
	assert.Equal(t, 0.0, byKey["s1|s2"].DgenDps)
	assert.Equal(t, 1.0, byKey["s1|s4"].DgenDps)
	assert.Less(t, byKey["s1|s2"].DgenEuclidean, byKey["s1|s4"].DgenEuclidean)

	// The composite target preserves the ordering of the raw metrics and
	// spans [0,1] over the dataset.
	assert.Equal(t, 0.0, byKey["s1|s2"].Dgen)
	var dgen, euc, dps []float64
	for _, p := range built {
		assert.GreaterOrEqual(t, p.Dgen, 0.0)
		assert.LessOrEqual(t, p.Dgen, 1.0)
		dgen = append(dgen, p.Dgen)
		euc = append(euc, p.DgenEuclidean)
		dps = append(dps, p.DgenDps)
	}
	assert.Positive(t, stat.Correlation(dgen, euc, nil))
	assert.Positive(t, stat.Correlation(dgen, dps, nil))
}

func TestBuildPairsNeedsVariation(t *testing.T) {
	// Two clones: every pairwise metric is constant, the composite is
	// undefined.
	s := testSamples()[:2]
	_, err := BuildPairs(s)
	require.Error(t, err)
}
