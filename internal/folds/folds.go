package folds

import (
	"fmt"

	"github.com/evomont/landgen-go/internal/models"
)

// Fold is one spatial cross-validation split over a pair table. Train
// holds indices of pairs where neither endpoint belongs to the held-out
// group; Test holds the complement (every pair touching the group on
// either side), which is what prevents spatial leakage through shared
// endpoints.
type Fold struct {
	Group int
	Train []int
	Test  []int
}

// Build constructs one fold per spatial group from the endpoint group
// labels carried on each pair. Every pair lands in the test set of every
// group it touches, so test sets of different folds overlap.
func Build(pairs []models.TrainingRow, groups int) ([]Fold, error) {
	if groups < 2 {
		return nil, fmt.Errorf("folds: need at least 2 groups, got %d", groups)
	}
	for i, p := range pairs {
		if p.Group1 < 0 || p.Group1 >= groups || p.Group2 < 0 || p.Group2 >= groups {
			return nil, fmt.Errorf("folds: pair %d (%s) has group outside [0,%d)", i, p.PairKey, groups)
		}
	}

	out := make([]Fold, groups)
	for g := 0; g < groups; g++ {
		f := Fold{Group: g}
		for i, p := range pairs {
			if p.Group1 == g || p.Group2 == g {
				f.Test = append(f.Test, i)
			} else {
				f.Train = append(f.Train, i)
			}
		}
		out[g] = f
	}
	return out, nil
}
