package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/evomont/landgen-go/internal/config"
	"github.com/evomont/landgen-go/internal/database"
	"github.com/evomont/landgen-go/internal/pipeline"

	// Import stage packages to register them.
	"github.com/evomont/landgen-go/internal/extract"
	"github.com/evomont/landgen-go/internal/pairs"
	"github.com/evomont/landgen-go/internal/surface"
	"github.com/evomont/landgen-go/internal/train"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "landgen",
		Short: "Landscape-genetics resistance surface pipeline",
		Long: "landgen runs the four batch stages of the landscape-genetics\n" +
			"pipeline: pairwise dataset building, transect covariate extraction,\n" +
			"spatial-CV model training, and resistance-surface packaging for the\n" +
			"UNICOR connectivity simulator.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "landgen.yaml", "project configuration file")

	root.AddCommand(
		stageCmd(pairs.StageName, "", "Build the pairwise distance dataset and spatial folds"),
		variantCmd(extract.StageName, "Extract covariate means along pair transects"),
		variantCmd(train.StageName, "Fit the spatial-CV boosted model and write the prediction surface"),
		stageCmd(surface.StageName, "", "Normalize the prediction raster and package it for UNICOR"),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// stageCmd wires a stage without variants.
func stageCmd(name, variant, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, name, variant)
		},
	}
}

// variantCmd wires a stage taking the geometry variant as its argument.
func variantCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:       name + " {straight|lcp}",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"straight", "lcp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, name, args[0])
		},
	}
}

func runStage(cmd *cobra.Command, name, variant string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory %s: %v", cfg.OutputDir, err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}(db)

	return pipeline.Execute(cmd.Context(), db, cfg, name, variant)
}
