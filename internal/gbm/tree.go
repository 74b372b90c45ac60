package gbm

import (
	"math"
	"sort"
)

// node is one split or leaf of a regression tree, stored in a flat
// array for cheap JSON serialization. Leaves have Feature == -1.
type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// tree is a depth-limited least-squares regression tree.
type tree struct {
	Nodes []node `json:"nodes"`
}

// predict routes x down the tree to its leaf value.
func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// buildTree fits a regression tree to (X, y) restricted to idx, greedily
// choosing the variance-reducing split at each node down to maxDepth,
// refusing splits that would leave fewer than minLeaf rows on a side.
func buildTree(X [][]float64, y []float64, idx []int, maxDepth, minLeaf int) *tree {
	t := &tree{}
	t.grow(X, y, idx, maxDepth, minLeaf)
	return t
}

func (t *tree) grow(X [][]float64, y []float64, idx []int, depth, minLeaf int) int {
	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, node{Feature: -1, Value: mean(y, idx)})

	if depth <= 0 || len(idx) < 2*minLeaf {
		return self
	}

	feature, threshold, ok := bestSplit(X, y, idx, minLeaf)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	t.Nodes[self].Feature = feature
	t.Nodes[self].Threshold = threshold
	t.Nodes[self].Left = t.grow(X, y, left, depth-1, minLeaf)
	t.Nodes[self].Right = t.grow(X, y, right, depth-1, minLeaf)
	return self
}

// bestSplit scans every feature with a sorted prefix-sum sweep and
// returns the split minimizing the summed squared error of the two
// sides. ok is false when no split satisfies minLeaf or reduces error.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int) (feature int, threshold float64, ok bool) {
	n := len(idx)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	total := 0.0
	totalSq := 0.0
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - total*total/float64(n)
	bestSSE := parentSSE

	order := make([]int, n)
	for fi := range X[idx[0]] {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][fi] < X[order[b]][fi] })

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			i := order[k]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// No split between tied feature values.
			if X[order[k+1]][fi] == X[i][fi] {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) +
				(rightSq - rightSum*rightSum/float64(nr))
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				feature = fi
				threshold = (X[i][fi] + X[order[k+1]][fi]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func mean(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
