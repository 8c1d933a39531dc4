// Command bidsify stages XNAT diffusion acquisitions into a BIDS dataset
// layout ready for QSIPrep. It parses flags, validates config and paths,
// and runs the staging pipeline.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurostage/bidsify/internal/config"
	"github.com/neurostage/bidsify/internal/display"
	"github.com/neurostage/bidsify/internal/logging"
	"github.com/neurostage/bidsify/internal/pipeline"
)

// version and commit are set at build time via -ldflags (e.g. Makefile).
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version, args); err != nil {
		fmt.Fprintf(os.Stderr, "bidsify: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "bidsify: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bidsify: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner()

	// The output root is only materialized for a real run; a dry run
	// leaves the filesystem untouched. In discovery mode the output must
	// not sit inside the input directory.
	if !cfg.DryRun {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			log.Error("Cannot create output directory: %s", cfg.OutputDir)
			return 1
		}
		outputAbs, err := absPath(cfg.OutputDir)
		if err != nil {
			log.Error("Cannot resolve output path: %s", cfg.OutputDir)
			return 1
		}
		if cfg.Discovery() {
			inputAbs, err := absPath(cfg.InputsDir)
			if err != nil {
				log.Error("Input directory not found: %s", cfg.InputsDir)
				return 1
			}
			if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
				log.Error("%v", err)
				log.Error("Choose an output path outside: %s", cfg.InputsDir)
				return 1
			}
		}
	}

	log.Info("=== bidsify v%s ===", version)
	log.Info("Out: %s", cfg.OutputDir)
	if cfg.DryRun {
		log.Warn("DRY RUN")
	}
	log.Info("")

	if _, err := pipeline.Run(&cfg, log); err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}

// absPath returns the absolute path with symlinks resolved, for comparing
// input vs output hierarchy.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
