package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the project configuration shared by all pipeline stages.
// Values come from a YAML project file with environment overrides for
// the paths that differ between machines.
type Config struct {
	// Paths, relative to the project directory unless absolute.
	DBPath        string `yaml:"db_path"`
	SamplesCSV    string `yaml:"samples_csv"`
	RasterDir     string `yaml:"raster_dir"`     // one ASCII grid per covariate
	ResistanceASC string `yaml:"resistance_asc"` // input for the LCP variant
	PredictionASC string `yaml:"prediction_asc"` // packager input: one variant's trainer output
	OutputDir     string `yaml:"output_dir"`

	// Pairwise builder.
	FoldCount int   `yaml:"fold_count"` // spatial k-means groups
	Seed      int64 `yaml:"seed"`       // deterministic fold assignment

	// Extractor.
	Workers           int     `yaml:"workers"`
	BufferRadius      float64 `yaml:"buffer_radius"`      // transect buffer, projection units
	LCPFallbackDist   float64 `yaml:"lcp_fallback_dist"`  // below this, skip routing
	SimplifyTolerance float64 `yaml:"simplify_tolerance"` // LCP polyline simplification

	// Trainer.
	MaxGeoDist float64   `yaml:"max_geo_dist"` // pair filter before training
	Trees      []int     `yaml:"trees"`
	Shrinkage  []float64 `yaml:"shrinkage"`
	Depth      []int     `yaml:"depth"`
	MinLeaf    []int     `yaml:"min_leaf"`
}

// Default returns the configuration used when a key is absent from the
// project file. The numeric defaults match the study design: 1 km
// transect buffers, a 510 m routing fallback, a 40 km pair filter,
// 10 spatial folds, 20 extraction workers.
func Default() *Config {
	return &Config{
		DBPath:            "./data/pipeline.db",
		SamplesCSV:        "./data/samples.csv",
		RasterDir:         "./data/rasters",
		ResistanceASC:     "./data/resistance.asc",
		PredictionASC:     "./out/prediction_lcp.asc",
		OutputDir:         "./out",
		FoldCount:         10,
		Seed:              1,
		Workers:           20,
		BufferRadius:      1000,
		LCPFallbackDist:   510,
		SimplifyTolerance: 0,
		MaxGeoDist:        40000,
		Trees:             []int{250, 500, 1000},
		Shrinkage:         []float64{0.01, 0.05, 0.1},
		Depth:             []int{2, 3, 5},
		MinLeaf:           []int{5, 10},
	}
}

// Load reads the project file at path (if it exists) on top of the
// defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("LANDGEN_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LANDGEN_RASTER_DIR"); v != "" {
		cfg.RasterDir = v
	}
	if v := os.Getenv("LANDGEN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.FoldCount < 2 {
		return fmt.Errorf("fold_count must be >= 2, got %d", c.FoldCount)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.BufferRadius <= 0 {
		return fmt.Errorf("buffer_radius must be positive, got %g", c.BufferRadius)
	}
	if c.LCPFallbackDist < 0 {
		return fmt.Errorf("lcp_fallback_dist must be non-negative, got %g", c.LCPFallbackDist)
	}
	if len(c.Trees) == 0 || len(c.Shrinkage) == 0 || len(c.Depth) == 0 || len(c.MinLeaf) == 0 {
		return fmt.Errorf("hyperparameter grid must not be empty")
	}
	return nil
}
