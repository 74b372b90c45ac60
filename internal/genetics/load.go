// Package genetics loads genotype records and computes the pairwise
// genetic-distance metrics and their composite regression target.
package genetics

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/evomont/landgen-go/internal/models"
)

// LoadSamples reads a genotype CSV of the form
//
//	id,x,y,locus1,locus2,...
//	W001,512345.0,5412345.0,140/146,98/102,...
//
// Genotype calls are slash-separated allele pairs; "NA" or an empty cell
// marks a missing call. Samples with missing coordinates or any missing
// locus are excluded entirely so that no pair involving them is ever
// built (never zero-filled). Returns the usable samples and the number
// excluded.
func LoadSamples(path string) ([]models.Sample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open samples file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read samples header: %w", err)
	}
	if len(header) < 4 {
		return nil, 0, fmt.Errorf("samples file needs id,x,y and at least one locus column, got %d columns", len(header))
	}
	lociNames := header[3:]

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read samples: %w", err)
	}

	var samples []models.Sample
	skipped := 0
	seen := make(map[string]bool)

	for i, rec := range records {
		line := i + 2 // 1-based, after header
		s, ok, err := parseSample(rec, lociNames)
		if err != nil {
			return nil, 0, fmt.Errorf("samples line %d: %w", line, err)
		}
		if !ok {
			skipped++
			continue
		}
		if seen[s.ID] {
			return nil, 0, fmt.Errorf("samples line %d: duplicate sample id %q", line, s.ID)
		}
		seen[s.ID] = true
		samples = append(samples, s)
	}

	if skipped > 0 {
		log.Printf("[Samples] Excluded %d samples with missing coordinates or genotypes", skipped)
	}
	return samples, skipped, nil
}

func parseSample(rec []string, lociNames []string) (models.Sample, bool, error) {
	if len(rec) != len(lociNames)+3 {
		return models.Sample{}, false, fmt.Errorf("expected %d fields, got %d", len(lociNames)+3, len(rec))
	}

	id := strings.TrimSpace(rec[0])
	if id == "" {
		return models.Sample{}, false, fmt.Errorf("empty sample id")
	}

	xs, ys := strings.TrimSpace(rec[1]), strings.TrimSpace(rec[2])
	if xs == "" || ys == "" || isNA(xs) || isNA(ys) {
		return models.Sample{}, false, nil // missing coordinates: exclude
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return models.Sample{}, false, fmt.Errorf("sample %s: bad x %q", id, xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return models.Sample{}, false, fmt.Errorf("sample %s: bad y %q", id, ys)
	}

	genotype := make([]models.Locus, 0, len(lociNames))
	for j, name := range lociNames {
		cell := strings.TrimSpace(rec[3+j])
		if cell == "" || isNA(cell) {
			return models.Sample{}, false, nil // missing call: exclude
		}
		parts := strings.Split(cell, "/")
		if len(parts) != 2 {
			return models.Sample{}, false, fmt.Errorf("sample %s locus %s: bad genotype %q", id, name, cell)
		}
		a, b := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if a == "" || b == "" {
			return models.Sample{}, false, nil
		}
		genotype = append(genotype, models.Locus{Name: name, AlleleA: a, AlleleB: b})
	}

	return models.Sample{ID: id, X: x, Y: y, Genotype: genotype, SpatialGroup: -1}, true, nil
}

func isNA(s string) bool {
	switch strings.ToUpper(s) {
	case "NA", "N/A", "NAN":
		return true
	}
	return false
}
