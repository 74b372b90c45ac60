package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stack is a set of co-registered covariate layers keyed by name. It is
// read-only once opened; concurrent workers must each open their own
// stack from the directory path rather than share one (live grids are
// plain slices, but per-worker opening is the contract the extractor
// relies on, so nothing here is guarded).
type Stack struct {
	Names  []string // sorted layer names
	Layers map[string]*Grid
}

// OpenStack reads every .asc file in dir as one covariate layer, named
// after the file without extension, and validates that all layers share
// the reference geometry of the first. Any mismatch is fatal: a stack
// with drifting grids would silently extract garbage means.
func OpenStack(dir string) (*Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read raster directory %s: %w", dir, err)
	}

	s := &Stack{Layers: make(map[string]*Grid)}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".asc") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		g, err := Read(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		s.Layers[name] = g
		s.Names = append(s.Names, name)
	}
	if len(s.Names) == 0 {
		return nil, fmt.Errorf("no .asc layers found in %s", dir)
	}
	sort.Strings(s.Names)

	ref := s.Layers[s.Names[0]]
	for _, name := range s.Names[1:] {
		if !ref.SameShape(s.Layers[name]) {
			return nil, fmt.Errorf("%w: layer %s does not match layer %s", ErrGridMismatch, name, s.Names[0])
		}
	}
	return s, nil
}

// Ref returns the reference geometry grid (first layer by name).
func (s *Stack) Ref() *Grid {
	return s.Layers[s.Names[0]]
}
