// Package pipeline orchestrates input resolution, staging-plan construction,
// and plan execution for one subject.
package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/neurostage/bidsify/internal/config"
	"github.com/neurostage/bidsify/internal/display"
	"github.com/neurostage/bidsify/internal/logging"
	"github.com/neurostage/bidsify/internal/registry"
	"github.com/neurostage/bidsify/internal/sidecar"
)

// Run is the top-level entry point: resolve inputs, build the complete
// staging plan, then execute it. Nothing is written until the whole plan
// validates, so a rejected input never leaves a partial subject behind.
// Registries are updated last, after every file write has succeeded.
func Run(cfg *config.Config, log *logging.Logger) (RunStats, error) {
	var stats RunStats

	var in Inputs
	if cfg.Discovery() {
		var err error
		in, err = Discover(cfg, log)
		if err != nil {
			return stats, err
		}
	} else {
		in = Declared(cfg)
	}

	plan, err := Build(cfg, in)
	if err != nil {
		return stats, err
	}

	logPlanHeader(cfg, log, plan)

	if cfg.DryRun {
		logDryRun(log, plan)
		return stats, nil
	}

	for i := range plan.Diffusion {
		if err := stageSet(log, cfg.OutputDir, &plan.Diffusion[i], &stats); err != nil {
			return stats, err
		}
	}
	if plan.Reverse != nil {
		if err := stageSet(log, cfg.OutputDir, plan.Reverse, &stats); err != nil {
			return stats, err
		}
	}
	if plan.Structural != nil {
		if err := stageSet(log, cfg.OutputDir, plan.Structural, &stats); err != nil {
			return stats, err
		}
	}

	if plan.ReconSrc != "" {
		dst := filepath.Join(cfg.OutputDir, plan.ReconRel)
		files, bytes, err := CopyTree(plan.ReconSrc, dst)
		if err != nil {
			return stats, fmt.Errorf("staging reconstruction: %w", err)
		}
		stats.ReconFiles = files
		stats.ReconBytes = bytes
		log.Stage("%s -> %s (%d files)", filepath.Base(plan.ReconSrc), plan.ReconRel, files)
	}

	if err := writeDescription(cfg); err != nil {
		return stats, err
	}
	if err := registry.AddParticipant(
		filepath.Join(cfg.OutputDir, "participants.tsv"), plan.SubjectID); err != nil {
		return stats, err
	}
	if err := registry.AddSubjectMapping(
		filepath.Join(cfg.OutputDir, "bids_subject_map.tsv"),
		cfg.SubjectLabel, plan.SubjectID); err != nil {
		return stats, err
	}

	logSummary(log, plan, &stats)
	return stats, nil
}

// stageSet copies one file set's planned files and writes its normalized
// metadata record.
func stageSet(log *logging.Logger, outDir string, sp *SetPlan, stats *RunStats) error {
	for _, f := range sp.Files {
		n, err := copyFile(f.Src, filepath.Join(outDir, f.Rel))
		if err != nil {
			return err
		}
		log.Stage("%s -> %s", filepath.Base(f.Src), f.Rel)
		stats.StagedFiles++
		stats.StagedBytes += n
	}
	if sp.SidecarRel != "" {
		if err := sidecar.Save(filepath.Join(outDir, sp.SidecarRel), sp.Sidecar); err != nil {
			return err
		}
		log.Stage("%s (normalized)", sp.SidecarRel)
		stats.StagedFiles++
	}
	stats.Sets++
	return nil
}

func writeDescription(cfg *config.Config) error {
	d := sidecar.DefaultDescription()
	if cfg.DatasetName != "" {
		d.Name = cfg.DatasetName
	}
	if cfg.BIDSVersion != "" {
		d.BIDSVersion = cfg.BIDSVersion
	}
	if cfg.DatasetType != "" {
		d.DatasetType = cfg.DatasetType
	}
	d.Authors = cfg.DatasetAuthors
	return sidecar.WriteDescription(
		filepath.Join(cfg.OutputDir, "dataset_description.json"), d)
}

// --- Logging helpers ---

func logPlanHeader(cfg *config.Config, log *logging.Logger, plan *Plan) {
	log.Info("Subject: %s", plan.Prefix)
	if cfg.Discovery() {
		mode := "strict"
		if cfg.Lenient {
			mode = "lenient"
		}
		log.Info("Mode: discovery (%s) from %s", mode, cfg.InputsDir)
	} else {
		log.Info("Mode: declared series")
	}
	log.Info("Direction labels: %s, reverse series role: %s", cfg.DirLabels, cfg.RPERole)

	for _, sp := range plan.Diffusion {
		log.Info("  dwi acq-%02d: %s%s", sp.AcqIndex, sp.Set.Base(), shellSuffix(sp.Shell))
	}
	if plan.Reverse != nil {
		log.Info("  %s acq-%02d: %s%s", cfg.RPERole, plan.Reverse.AcqIndex,
			plan.Reverse.Set.Base(), shellSuffix(plan.Reverse.Shell))
	}
	if plan.Structural != nil {
		log.Info("  anat: %s", plan.Structural.Set.Base())
	}
	if plan.ReconSrc != "" {
		log.Info("  recon: %s", plan.ReconSrc)
	}
	fmt.Println()
}

func shellSuffix(shell int) string {
	if shell < 0 {
		return ""
	}
	return fmt.Sprintf(" (b=%d)", shell)
}

func logDryRun(log *logging.Logger, plan *Plan) {
	for _, sp := range plan.Diffusion {
		logDrySet(log, sp)
	}
	if plan.Reverse != nil {
		logDrySet(log, *plan.Reverse)
	}
	if plan.Structural != nil {
		logDrySet(log, *plan.Structural)
	}
	if plan.ReconSrc != "" {
		log.Success("[DRY] Would copy reconstruction tree to %s", plan.ReconRel)
	}
	log.Success("[DRY] Would update dataset_description.json, participants.tsv, bids_subject_map.tsv")
}

func logDrySet(log *logging.Logger, sp SetPlan) {
	for _, f := range sp.Files {
		log.Success("[DRY] Would copy %s -> %s", filepath.Base(f.Src), f.Rel)
	}
	if sp.SidecarRel != "" {
		log.Success("[DRY] Would write %s", sp.SidecarRel)
	}
}

func logSummary(log *logging.Logger, plan *Plan, stats *RunStats) {
	log.Info("==============================")
	log.Success("Staged %d file sets (%d files, %s) under %s",
		stats.Sets, stats.StagedFiles, display.FormatBytes(stats.StagedBytes), plan.SubjectRel)
	if stats.ReconFiles > 0 {
		log.Success("Reconstruction: %d files (%s) under %s",
			stats.ReconFiles, display.FormatBytes(stats.ReconBytes), plan.ReconRel)
	}
}
