package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	yaml := `
db_path: /srv/study/pipeline.db
workers: 4
buffer_radius: 2500
trees: [100]
`
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/study/pipeline.db", cfg.DBPath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2500.0, cfg.BufferRadius)
	assert.Equal(t, []int{100}, cfg.Trees)

	// Untouched keys keep their defaults.
	assert.Equal(t, 510.0, cfg.LCPFallbackDist)
	assert.Equal(t, 10, cfg.FoldCount)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LANDGEN_DB_PATH", "/tmp/env.db")
	t.Setenv("LANDGEN_RASTER_DIR", "/tmp/rasters")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, "/tmp/rasters", cfg.RasterDir)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"fold_count": "fold_count: 1",
		"workers":    "workers: 0",
		"radius":     "buffer_radius: -5",
		"fallback":   "lcp_fallback_dist: -1",
		"empty grid": "trees: []",
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [not a number"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
