package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/neurostage/bidsify/internal/config"
	"github.com/neurostage/bidsify/internal/logging"
	"github.com/neurostage/bidsify/internal/naming"
)

// reconDirName is the fixed name XNAT exports use for the precomputed
// FreeSurfer reconstruction, sometimes nested one level deep.
const reconDirName = "SUBJECT"

// hintTable builds the direction hint list: built-ins first, then any
// user-supplied hints from the YAML overlay, in order.
func hintTable(cfg *config.Config) []naming.DirHint {
	hints := append([]naming.DirHint(nil), naming.DefaultHints...)
	for _, h := range cfg.ExtraHints {
		hints = append(hints, naming.DirHint{
			Match: strings.ToLower(h.Match),
			Token: naming.DirectionToken(strings.ToUpper(h.Token)),
		})
	}
	return hints
}

// Discover scans a flat input directory and classifies every NIfTI into a
// role by its inferred phase-encoding direction: files on the configured
// forward direction become primary diffusion series, files on the opposite
// direction the reverse reference, and t1* basenames the structural image.
// A SUBJECT directory (possibly nested SUBJECT/SUBJECT) is the precomputed
// reconstruction. Classification order is lexicographic for determinism.
//
// Strict discovery fails on any NIfTI it cannot classify; lenient discovery
// logs and skips it, and also tolerates a missing reverse reference,
// structural image, or reconstruction directory.
func Discover(cfg *config.Config, log *logging.Logger) (Inputs, error) {
	forward := naming.DirectionToken(strings.ToUpper(cfg.ForwardDir))
	reverse, ok := naming.Opposite(forward)
	if !ok {
		return Inputs{}, fmt.Errorf("unknown forward direction token %q", cfg.ForwardDir)
	}
	hints := hintTable(cfg)

	entries, err := os.ReadDir(cfg.InputsDir)
	if err != nil {
		return Inputs{}, pfx.Err(err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var in Inputs
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if name == reconDirName {
				in.ReconDir = resolveReconDir(filepath.Join(cfg.InputsDir, name))
			}
			continue
		}
		if !strings.HasSuffix(name, ImageExt) {
			continue
		}
		path := filepath.Join(cfg.InputsDir, name)
		lower := strings.ToLower(name)

		if strings.Contains(lower, "t1") && !strings.HasPrefix(lower, "t1map") {
			// First t1 candidate wins.
			if in.Structural == nil {
				in.Structural = &FileSet{Image: path, Role: RoleStructural}
			} else {
				log.Warn("Ignoring extra structural candidate %s (already using %s)", name, in.Structural.Base())
			}
			continue
		}

		tok, found := naming.ParseDirection(name, hints)
		switch {
		case !found:
			if cfg.Lenient {
				log.Warn("Skipping %s: no direction token or hint matched", name)
				continue
			}
			return Inputs{}, fmt.Errorf("%w: %s: no direction token or hint matched", ErrUnresolvableRole, path)
		case tok == forward:
			in.Diffusion = append(in.Diffusion, FileSet{Image: path, Role: RolePrimaryDiffusion, Direction: tok})
		case tok == reverse:
			if in.Reverse != nil {
				return Inputs{}, fmt.Errorf("%w: %s: second %s series (already have %s)",
					ErrUnresolvableRole, path, reverse, in.Reverse.Base())
			}
			in.Reverse = &FileSet{Image: path, Role: RoleReverseReference, Direction: tok}
		default:
			if cfg.Lenient {
				log.Warn("Skipping %s: direction %s is neither %s nor %s", name, tok, forward, reverse)
				continue
			}
			return Inputs{}, fmt.Errorf("%w: %s: direction %s is neither %s nor %s",
				ErrUnresolvableRole, path, tok, forward, reverse)
		}
	}

	if len(in.Diffusion) == 0 {
		return Inputs{}, fmt.Errorf("no %s diffusion series found in %s", forward, cfg.InputsDir)
	}
	if !cfg.Lenient {
		if in.Reverse == nil {
			return Inputs{}, fmt.Errorf("no %s reverse reference series found in %s", reverse, cfg.InputsDir)
		}
		if in.Structural == nil {
			return Inputs{}, fmt.Errorf("no structural t1*.nii.gz found in %s", cfg.InputsDir)
		}
		if in.ReconDir == "" {
			return Inputs{}, fmt.Errorf("no %s reconstruction directory found in %s", reconDirName, cfg.InputsDir)
		}
	}
	return in, nil
}

// resolveReconDir unwraps the SUBJECT/SUBJECT nesting some exports produce.
func resolveReconDir(dir string) string {
	nested := filepath.Join(dir, reconDirName)
	if fi, err := os.Stat(nested); err == nil && fi.IsDir() {
		return nested
	}
	return dir
}
