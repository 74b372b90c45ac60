// Package gbm implements least-squares gradient boosting with
// depth-limited regression trees: the regression engine behind the
// spatial-CV model trainer. Scope is deliberately narrow — squared
// error loss, a full-sample fit per boosting round, and the four
// hyperparameters the trainer's grid actually searches (tree count,
// shrinkage, interaction depth, minimum leaf size).
package gbm

import (
	"encoding/json"
	"fmt"
	"os"
)

// Params are the boosting hyperparameters.
type Params struct {
	Trees     int     `json:"trees"`
	Shrinkage float64 `json:"shrinkage"`
	Depth     int     `json:"depth"`
	MinLeaf   int     `json:"minLeaf"`
}

// Model is a fitted boosted ensemble bound to the ordered feature list
// it was trained on.
type Model struct {
	Features []string `json:"features"`
	Params   Params   `json:"params"`
	Base     float64  `json:"base"`
	Ensemble []*tree  `json:"ensemble"`
}

// Fit trains a boosted ensemble on X (row-major, columns following
// features) against target y.
func Fit(X [][]float64, y []float64, features []string, p Params) (*Model, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("gbm: bad training shape: %d rows, %d targets", len(X), len(y))
	}
	for i, row := range X {
		if len(row) != len(features) {
			return nil, fmt.Errorf("gbm: row %d has %d features, expected %d", i, len(row), len(features))
		}
	}
	if p.Trees < 1 || p.Shrinkage <= 0 || p.Depth < 1 || p.MinLeaf < 1 {
		return nil, fmt.Errorf("gbm: invalid params %+v", p)
	}

	n := len(y)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	base := 0.0
	for _, v := range y {
		base += v
	}
	base /= float64(n)

	m := &Model{Features: append([]string(nil), features...), Params: p, Base: base}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = base
	}
	residual := make([]float64, n)

	for round := 0; round < p.Trees; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		t := buildTree(X, residual, idx, p.Depth, p.MinLeaf)
		m.Ensemble = append(m.Ensemble, t)
		for i := range pred {
			pred[i] += p.Shrinkage * t.predict(X[i])
		}
	}
	return m, nil
}

// Predict returns the model output for one feature row.
func (m *Model) Predict(x []float64) float64 {
	out := m.Base
	for _, t := range m.Ensemble {
		out += m.Params.Shrinkage * t.predict(x)
	}
	return out
}

// PredictAll predicts every row of X.
func (m *Model) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.Predict(x)
	}
	return out
}

// Save writes the model artifact as JSON.
func (m *Model) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("gbm: failed to marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("gbm: failed to write model %s: %w", path, err)
	}
	return nil
}

// Load reads a model artifact written by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gbm: failed to read model %s: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("gbm: failed to parse model %s: %w", path, err)
	}
	return &m, nil
}
