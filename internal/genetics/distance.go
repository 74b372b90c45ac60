package genetics

import (
	"fmt"
	"math"
	"sort"

	"github.com/evomont/landgen-go/internal/models"
)

// FreqMatrix holds per-individual allele frequency vectors over the
// pooled allele catalogue of all loci. Rows follow the sample order it
// was built from; columns are (locus, allele) in a fixed sorted order.
type FreqMatrix struct {
	Rows [][]float64
	Cols []string // "locus:allele" labels, for debugging
}

// BuildFreqMatrix catalogues every allele observed at each locus across
// all samples and encodes each individual as a vector of within-locus
// allele frequencies (0, 0.5 or 1 for a diploid call).
func BuildFreqMatrix(samples []models.Sample) (*FreqMatrix, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to build frequency matrix from")
	}
	nLoci := len(samples[0].Genotype)
	for _, s := range samples {
		if len(s.Genotype) != nLoci {
			return nil, fmt.Errorf("sample %s has %d loci, expected %d", s.ID, len(s.Genotype), nLoci)
		}
	}

	// Catalogue alleles per locus in deterministic order.
	catalogue := make([][]string, nLoci)
	for l := 0; l < nLoci; l++ {
		set := make(map[string]bool)
		for _, s := range samples {
			set[s.Genotype[l].AlleleA] = true
			set[s.Genotype[l].AlleleB] = true
		}
		alleles := make([]string, 0, len(set))
		for a := range set {
			alleles = append(alleles, a)
		}
		sort.Strings(alleles)
		catalogue[l] = alleles
	}

	var cols []string
	for l, alleles := range catalogue {
		for _, a := range alleles {
			cols = append(cols, samples[0].Genotype[l].Name+":"+a)
		}
	}

	rows := make([][]float64, len(samples))
	for i, s := range samples {
		row := make([]float64, 0, len(cols))
		for l, alleles := range catalogue {
			for _, a := range alleles {
				count := 0.0
				if s.Genotype[l].AlleleA == a {
					count++
				}
				if s.Genotype[l].AlleleB == a {
					count++
				}
				row = append(row, count/2)
			}
		}
		rows[i] = row
	}

	return &FreqMatrix{Rows: rows, Cols: cols}, nil
}

// EuclideanDistance returns the Euclidean distance between the allele
// frequency vectors of samples i and j.
func (m *FreqMatrix) EuclideanDistance(i, j int) float64 {
	sum := 0.0
	for k := range m.Rows[i] {
		d := m.Rows[i][k] - m.Rows[j][k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// SharedAlleleDistance returns 1 - Dps, the proportion-of-shared-alleles
// distance between two individuals: at each locus the number of alleles
// shared between the two diploid calls (0, 1 or 2), summed and divided
// by twice the locus count.
func SharedAlleleDistance(a, b models.Sample) float64 {
	if len(a.Genotype) == 0 {
		return 0
	}
	shared := 0
	for l := range a.Genotype {
		shared += sharedAtLocus(a.Genotype[l], b.Genotype[l])
	}
	return 1 - float64(shared)/float64(2*len(a.Genotype))
}

// sharedAtLocus counts alleles common to two diploid calls, respecting
// copy number (the multiset intersection size).
func sharedAtLocus(a, b models.Locus) int {
	counts := map[string]int{a.AlleleA: 1}
	counts[a.AlleleB]++

	shared := 0
	for _, allele := range []string{b.AlleleA, b.AlleleB} {
		if counts[allele] > 0 {
			counts[allele]--
			shared++
		}
	}
	return shared
}
