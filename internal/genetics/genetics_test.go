package genetics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/evomont/landgen-go/internal/models"
)

func sample(id string, calls ...[2]string) models.Sample {
	s := models.Sample{ID: id}
	for i, c := range calls {
		s.Genotype = append(s.Genotype, models.Locus{
			Name: "L" + string(rune('0'+i)), AlleleA: c[0], AlleleB: c[1],
		})
	}
	return s
}

func TestSharedAlleleDistance(t *testing.T) {
	a := sample("a", [2]string{"140", "146"}, [2]string{"98", "102"})
	b := sample("b", [2]string{"140", "146"}, [2]string{"98", "102"})
	c := sample("c", [2]string{"150", "152"}, [2]string{"90", "92"})
	d := sample("d", [2]string{"140", "150"}, [2]string{"98", "90"})

	assert.Equal(t, 0.0, SharedAlleleDistance(a, b), "identical genotypes share everything")
	assert.Equal(t, 1.0, SharedAlleleDistance(a, c), "disjoint genotypes share nothing")
	assert.Equal(t, 0.5, SharedAlleleDistance(a, d), "one shared allele per locus")
}

func TestSharedAlleleDistanceRespectsCopyNumber(t *testing.T) {
	// Homozygote vs heterozygote shares exactly one copy.
	hom := sample("hom", [2]string{"140", "140"})
	het := sample("het", [2]string{"140", "146"})
	assert.Equal(t, 0.5, SharedAlleleDistance(hom, het))
}

func TestFreqMatrixEuclidean(t *testing.T) {
	a := sample("a", [2]string{"1", "1"})
	b := sample("b", [2]string{"2", "2"})
	c := sample("c", [2]string{"1", "2"})

	m, err := BuildFreqMatrix([]models.Sample{a, b, c})
	require.NoError(t, err)

	// a = (1,0), b = (0,1), c = (0.5,0.5) over alleles {1,2}.
	assert.InDelta(t, 1.4142135623, m.EuclideanDistance(0, 1), 1e-9)
	assert.InDelta(t, 0.7071067811, m.EuclideanDistance(0, 2), 1e-9)
	assert.Equal(t, m.EuclideanDistance(1, 2), m.EuclideanDistance(2, 1))
}

func TestCompositeDistanceProperties(t *testing.T) {
	euc := []float64{0.1, 0.5, 0.9, 0.3, 0.7, 0.2}
	dps := []float64{0.15, 0.45, 0.95, 0.25, 0.8, 0.1}

	out, err := CompositeDistance(euc, dps)
	require.NoError(t, err)
	require.Len(t, out, len(euc))

	min, max := out[0], out[0]
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	assert.Equal(t, 0.0, min, "minimum pair attains exactly 0")
	assert.Equal(t, 1.0, max, "maximum pair attains exactly 1")

	assert.Positive(t, stat.Correlation(out, euc, nil))
	assert.Positive(t, stat.Correlation(out, dps, nil))
}

func TestCompositeDistanceConstantMetric(t *testing.T) {
	_, err := CompositeDistance([]float64{0.5, 0.5, 0.5}, []float64{0.1, 0.2, 0.3})
	require.ErrorIs(t, err, ErrNoVariation)
}

func TestLoadSamplesExcludesMissing(t *testing.T) {
	csv := "id,x,y,L1,L2\n" +
		"s1,100,200,140/146,98/102\n" +
		"s2,300,400,140/140,98/98\n" +
		"s3,,400,140/146,98/102\n" + // missing x
		"s4,500,600,NA,98/102\n" + // missing genotype
		"s5,700,800,150/152,90/92\n"
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	samples, skipped, err := LoadSamples(path)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, samples, 3)
	assert.Equal(t, "s1", samples[0].ID)
	assert.Equal(t, 100.0, samples[0].X)
	require.Len(t, samples[0].Genotype, 2)
	assert.Equal(t, "140", samples[0].Genotype[0].AlleleA)
}

func TestLoadSamplesRejectsDuplicates(t *testing.T) {
	csv := "id,x,y,L1\ns1,1,2,140/146\ns1,3,4,140/140\n"
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, _, err := LoadSamples(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate sample id")
}

func TestLoadSamplesRejectsMalformedGenotype(t *testing.T) {
	csv := "id,x,y,L1\ns1,1,2,140-146\n"
	path := filepath.Join(t.TempDir(), "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	_, _, err := LoadSamples(path)
	require.Error(t, err)
}
