// Package config holds runtime configuration: defaults, CLI flag parsing,
// an optional YAML overlay for dataset metadata, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// --- Enum types for validated string fields ---

// RPERole selects how the reverse phase-encoding reference series is staged.
// The choice materially affects downstream consumption and is therefore an
// explicit setting, never inferred.
type RPERole string

const (
	// RPEFmap stages the reverse series under fmap/ as *_epi.* with an
	// IntendedFor cross-reference list (default).
	RPEFmap RPERole = "fmap"
	// RPEDwi stages the reverse series under dwi/ as *_dwi.* with a
	// polarity-toggled PhaseEncodingDirection and no IntendedFor.
	RPEDwi RPERole = "dwi"
)

// DirLabels selects the dir-<label> vocabulary used in canonical names.
type DirLabels string

const (
	// DirGeneric uses the recommended generic labels fwd/rev.
	DirGeneric DirLabels = "generic"
	// DirInferred uses the classifier's tokens (AP, PA, ...); an
	// undetermined direction is then a hard failure.
	DirInferred DirLabels = "inferred"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DirHint is a user-supplied filename substring → direction token pair,
// appended after the built-in hint table.
type DirHint struct {
	Match string `yaml:"match"`
	Token string `yaml:"token"`
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// mutated by [ParseFlags] (and the optional YAML overlay), then passed by
// pointer to the packages that need it.
type Config struct {
	// Declared inputs: one or more diffusion series images, the reverse
	// phase-encoding reference, the structural image, and the precomputed
	// FreeSurfer reconstruction directory. Companion files (.bval, .bvec,
	// .json) are derived from each image's stem.
	DWISeries []string
	RPESeries string
	T1w       string
	FSDir     string

	// Discovery mode: a single flat directory scanned and classified in
	// place of declared inputs.
	InputsDir string

	// Output root (the BIDS dataset root) and identity labels. Labels are
	// sanitized downstream; the raw value is preserved for the subject map.
	OutputDir    string
	SubjectLabel string
	SessionLabel string // Optional; adds ses- entities and a session level.

	// Naming and staging policy.
	RPERole    RPERole   // Default: fmap.
	DirLabels  DirLabels // Default: generic (fwd/rev).
	ForwardDir string    // Discovery mode: token treated as the primary direction. Default: "AP".
	Lenient    bool      // Discovery mode: synthesize missing optional sidecars.
	DryRun     bool      // Print the staging plan without copying.
	ExtraHints []DirHint // From the YAML overlay.

	// Dataset description overrides (YAML overlay; empty = fixed defaults).
	DatasetName    string
	BIDSVersion    string
	DatasetType    string
	DatasetAuthors []string

	// Display and logging.
	Verbose    bool
	ColorMode  ColorMode // Default: "auto".
	LogFile    string    // Optional log file path.
	ConfigFile string    // Optional YAML overlay path.
}

// DefaultConfig returns a Config with all defaults applied. Used as the base
// before [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		RPERole:    RPEFmap,
		DirLabels:  DirGeneric,
		ForwardDir: "AP",
		ColorMode:  ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path. The
// filesystem root "/" is returned unchanged so we don't produce an empty
// string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Discovery reports whether the run uses the flat-directory discovery entry
// mode instead of declared inputs.
func (c *Config) Discovery() bool { return c.InputsDir != "" }

// Validate checks enum fields and the input-declaration shape: either a flat
// inputs directory, or the full declared set, but never a mix.
func (c *Config) Validate() error {
	switch c.RPERole {
	case RPEFmap, RPEDwi:
		// valid
	default:
		return errors.New("invalid rpe role (use 'fmap' or 'dwi')")
	}

	switch c.DirLabels {
	case DirGeneric, DirInferred:
		// valid
	default:
		return errors.New("invalid dir labels (use 'generic' or 'inferred')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.OutputDir == "" {
		return errors.New("--out is required")
	}
	if c.SubjectLabel == "" {
		return errors.New("--subject is required")
	}

	declared := len(c.DWISeries) > 0 || c.RPESeries != "" || c.T1w != "" || c.FSDir != ""
	if c.Discovery() && declared {
		return errors.New("--inputs-dir cannot be combined with declared inputs (--dwi/--rpe/--t1/--fs-dir)")
	}
	if !c.Discovery() {
		if len(c.DWISeries) == 0 {
			return errors.New("need at least one --dwi series (or --inputs-dir)")
		}
		if c.RPESeries == "" {
			return errors.New("--rpe is required in declared mode")
		}
		if c.T1w == "" {
			return errors.New("--t1 is required in declared mode")
		}
		if c.FSDir == "" {
			return errors.New("--fs-dir is required in declared mode")
		}
		if c.Lenient {
			return errors.New("--lenient applies only to --inputs-dir discovery")
		}
	}

	for _, h := range c.ExtraHints {
		if strings.TrimSpace(h.Match) == "" || strings.TrimSpace(h.Token) == "" {
			return fmt.Errorf("direction hint needs both match and token (got %q -> %q)", h.Match, h.Token)
		}
	}
	return nil
}

// ValidatePaths ensures the resolved output root is not inside (or equal to)
// the resolved inputs directory, which would make discovery re-ingest our
// own outputs. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside the inputs directory")
	}
	return nil
}
