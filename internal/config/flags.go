package config

// This file implements CLI flag parsing and help text. Flags are grouped
// into inputs, naming policy, behavior, and display/utility. The YAML
// overlay (--config) is applied after Parse so command-line values are never
// silently overridden by the file.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses args (os.Args[1:] form) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, bad enum value, unreadable overlay file).
func ParseFlags(cfg *Config, version string, args []string) error {
	fs := flag.NewFlagSet("bidsify", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var util utilityFlags

	defineInputFlags(fs, cfg)
	defineNamingFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &util)
	defineUtilityFlags(fs, &util)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if util.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if util.showVersion {
		fmt.Fprintln(os.Stdout, "bidsify v"+version)
		os.Exit(0)
	}

	if util.noColor {
		cfg.ColorMode = ColorNever
	} else if util.forceColor {
		cfg.ColorMode = ColorAlways
	}

	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected positional argument %q (all inputs are flags)", fs.Args()[0])
	}

	cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	cfg.InputsDir = NormalizeDirArg(cfg.InputsDir)

	if cfg.ConfigFile != "" {
		if err := ApplyFile(cfg, cfg.ConfigFile); err != nil {
			return err
		}
	}
	return nil
}

// utilityFlags holds flags that exit or post-adjust cfg after Parse.
type utilityFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// multiFlag collects a repeatable string flag (e.g. --dwi given once per
// series, in acquisition-index order).
type multiFlag struct{ p *[]string }

func (m *multiFlag) String() string {
	if m.p == nil {
		return ""
	}
	return strings.Join(*m.p, ",")
}

func (m *multiFlag) Set(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("empty path")
	}
	*m.p = append(*m.p, s)
	return nil
}

// defineInputFlags registers the declared-input and discovery-mode flags.
func defineInputFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&multiFlag{&cfg.DWISeries}, "dwi", "Diffusion series image (.nii.gz); repeat per series, order fixes acq indices")
	fs.StringVar(&cfg.RPESeries, "rpe", "", "Reverse phase-encoding reference image (.nii.gz)")
	fs.StringVar(&cfg.T1w, "t1", "", "Structural T1w image (.nii.gz)")
	fs.StringVar(&cfg.FSDir, "fs-dir", "", "Precomputed FreeSurfer subject directory")
	fs.StringVar(&cfg.InputsDir, "inputs-dir", "", "Flat input directory to discover and classify (alternate entry mode)")
	fs.StringVar(&cfg.OutputDir, "out", "", "Output root (the BIDS dataset root)")
	fs.StringVar(&cfg.OutputDir, "o", "", "Same as --out")
	fs.StringVar(&cfg.SubjectLabel, "subject", "", "External subject label (sanitized for BIDS)")
	fs.StringVar(&cfg.SubjectLabel, "s", "", "Same as --subject")
	fs.StringVar(&cfg.SessionLabel, "session", "", "External session label (optional; sanitized for BIDS)")
}

// defineNamingFlags registers --rpe-role, --dir-labels, --forward-dir.
func defineNamingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&rpeRoleValue{&cfg.RPERole}, "rpe-role", "Reverse reference output role: fmap | dwi")
	fs.Var(&dirLabelsValue{&cfg.DirLabels}, "dir-labels", "dir- label vocabulary: generic | inferred")
	fs.StringVar(&cfg.ForwardDir, "forward-dir", cfg.ForwardDir, "Discovery: token treated as the primary direction")
}

// defineBehaviorFlags registers --lenient, --dry-run, --config.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.Lenient, "lenient", false, "Discovery: synthesize missing optional sidecars instead of failing")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Print the staging plan; do not copy anything")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML overlay: dataset description and extra direction hints")
}

// defineDisplayFlags registers --color, --no-color, verbose, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, u *utilityFlags) {
	fs.BoolVar(&u.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&u.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, u *utilityFlags) {
	fs.BoolVar(&u.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&u.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&u.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&u.showHelp, "h", false, "Same as --help")
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "bidsify v" + version + ": stage XNAT acquisitions into a BIDS layout for QSIPrep"},
		{"", ""},
		{"  bidsify --dwi a.nii.gz [--dwi b.nii.gz ...] --rpe r.nii.gz --t1 t1.nii.gz \\", ""},
		{"          --fs-dir SUBJECT --out OUTPUTS --subject LABEL [--session LABEL]", ""},
		{"  bidsify --inputs-dir FLAT --out OUTPUTS --subject LABEL [--lenient]", ""},
		{"", ""},
		{"Inputs", ""},
		{"  --dwi <path>", "Diffusion series image; repeat per series (order = acq index)"},
		{"  --rpe <path>", "Reverse phase-encoding reference image"},
		{"  --t1 <path>", "Structural T1w image"},
		{"  --fs-dir <path>", "Precomputed FreeSurfer subject directory"},
		{"  --inputs-dir <path>", "Discover inputs from one flat directory instead"},
		{"  -o, --out <path>", "Output root (BIDS dataset root)"},
		{"  -s, --subject <label>", "External subject label (sanitized for BIDS)"},
		{"  --session <label>", "External session label (optional)"},
		{"", ""},
		{"Naming policy", ""},
		{"  --rpe-role <fmap|dwi>", "Reverse reference output role (default: fmap)"},
		{"  --dir-labels <generic|inferred>", "dir- labels: fwd/rev or classifier tokens (default: generic)"},
		{"  --forward-dir <token>", "Discovery: primary-direction token (default: AP)"},
		{"", ""},
		{"Behavior", ""},
		{"  --lenient", "Discovery: synthesize missing optional sidecars"},
		{"  -d, --dry-run", "Print the staging plan; do not copy"},
		{"  --config <path>", "YAML overlay (dataset description, direction hints)"},
		{"", ""},
		{"Display & utility", ""},
		{"  --color / --no-color", "Force / disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so enum types work with flag.Var.

type rpeRoleValue struct{ p *RPERole }

func (r *rpeRoleValue) String() string {
	if r.p == nil {
		return ""
	}
	return string(*r.p)
}

func (r *rpeRoleValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "fmap":
		*r.p = RPEFmap
	case "dwi":
		*r.p = RPEDwi
	default:
		return fmt.Errorf("invalid rpe role %q (use 'fmap' or 'dwi')", s)
	}
	return nil
}

type dirLabelsValue struct{ p *DirLabels }

func (d *dirLabelsValue) String() string {
	if d.p == nil {
		return ""
	}
	return string(*d.p)
}

func (d *dirLabelsValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "generic":
		*d.p = DirGeneric
	case "inferred":
		*d.p = DirInferred
	default:
		return fmt.Errorf("invalid dir labels %q (use 'generic' or 'inferred')", s)
	}
	return nil
}
