// Package folds assigns samples to spatial groups and derives the
// cross-validation folds used by the model trainer. Grouping is
// unsupervised k-means on raw coordinates; it is computed once by the
// pair builder and reused identically by every model run so the
// straight-line and least-cost-path models are comparable.
package folds

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/evomont/landgen-go/internal/geo"
)

const maxIterations = 200

// KMeans clusters points into k groups with Lloyd's algorithm and
// k-means++ seeding. The seed makes assignment deterministic for a
// given dataset, which the pipeline relies on: fold membership must not
// change between the two extractor variants' model runs.
func KMeans(points []geo.Point, k int, seed int64) ([]int, error) {
	if k < 1 {
		return nil, fmt.Errorf("folds: k must be >= 1, got %d", k)
	}
	if len(points) < k {
		return nil, fmt.Errorf("folds: %d points cannot form %d groups", len(points), k)
	}

	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(points, k, rng)
	assign := make([]int, len(points))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := geo.Distance(p, center); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		// Recompute centers; an emptied group keeps its old center.
		sums := make([]geo.Point, k)
		counts := make([]int, k)
		for i, p := range points {
			c := assign[i]
			sums[c] = sums[c].Add(p)
			counts[c]++
		}
		for c := range centers {
			if counts[c] > 0 {
				centers[c] = sums[c].Mul(1 / float64(counts[c]))
			}
		}

		if !changed {
			break
		}
	}

	return assign, nil
}

// seedCenters picks k initial centers with the k-means++ rule: each new
// center is drawn with probability proportional to squared distance from
// the nearest already-chosen center.
func seedCenters(points []geo.Point, k int, rng *rand.Rand) []geo.Point {
	centers := make([]geo.Point, 0, k)
	centers = append(centers, points[rng.Intn(len(points))])

	dist2 := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			d := geo.Distance(p, centers[0])
			min := d * d
			for _, c := range centers[1:] {
				d = geo.Distance(p, c)
				if dd := d * d; dd < min {
					min = dd
				}
			}
			dist2[i] = min
			total += min
		}

		if total == 0 {
			// All remaining points coincide with a center; any choice works.
			centers = append(centers, points[rng.Intn(len(points))])
			continue
		}

		target := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, d := range dist2 {
			acc += d
			if acc >= target {
				chosen = i
				break
			}
		}
		centers = append(centers, points[chosen])
	}
	return centers
}
