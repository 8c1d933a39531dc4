package pipeline

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/neurostage/bidsify/internal/config"
	"github.com/neurostage/bidsify/internal/naming"
	"github.com/neurostage/bidsify/internal/sidecar"
)

// PlannedFile is one verbatim copy: absolute source → output-root-relative
// destination.
type PlannedFile struct {
	Src string
	Rel string
}

// SetPlan is the complete staging decision for one acquisition file set:
// every copy destination resolved, and the metadata record already loaded,
// normalized, and ready to persist. Execution is pure I/O.
type SetPlan struct {
	Set      FileSet
	AcqIndex int    // cumulative across diffusion then reverse; 0 for structural
	DirLabel string // canonical dir- label; "" for structural
	Shell    int    // dominant diffusion shell, display only; -1 when unknown

	Files      []PlannedFile  // payload and gradient companions
	SidecarRel string         // output-root-relative metadata destination; "" if none
	Sidecar    sidecar.Record // normalized record to write at SidecarRel
}

// Plan is the validated staging plan for one invocation. Building it
// touches no output files; rejecting bad inputs here is what keeps failures
// from leaving partial canonical outputs behind.
type Plan struct {
	Prefix     string // sub-X or sub-X_ses-Y
	SubjectID  string // sub-X (participants.tsv row)
	SubjectRel string // sub-X or sub-X/ses-Y

	Diffusion  []SetPlan
	Reverse    *SetPlan
	Structural *SetPlan

	ReconSrc string // "" when tolerated absent (lenient discovery)
	ReconRel string

	// IntendedFor lists diffusion image outputs relative to the subject
	// directory, in staging order.
	IntendedFor []string
}

// Build resolves, classifies, names, and validates every input group. All
// mandatory companions must exist, every metadata record must normalize,
// and no two file sets may claim the same canonical name.
func Build(cfg *config.Config, in Inputs) (*Plan, error) {
	subject := naming.SanitizeLabel(cfg.SubjectLabel)
	session := ""
	if cfg.SessionLabel != "" {
		session = naming.SanitizeLabel(cfg.SessionLabel)
	}
	prefix := naming.EntityPrefix(subject, session)

	subjectRel := "sub-" + subject
	sesSeg := ""
	if session != "" {
		sesSeg = "ses-" + session
		subjectRel = filepath.Join(subjectRel, sesSeg)
	}

	p := &Plan{
		Prefix:     prefix,
		SubjectID:  "sub-" + subject,
		SubjectRel: subjectRel,
	}
	claims := naming.NewClaimSet()

	acq := 0
	for _, set := range in.Diffusion {
		acq++
		sp, err := planAcquisition(cfg, set, acq, claims, prefix, subjectRel, nil)
		if err != nil {
			return nil, err
		}
		p.Diffusion = append(p.Diffusion, sp)
		imageName := naming.DiffusionName(prefix, naming.AcqIndexToken(acq), sp.DirLabel, ImageExt)
		p.IntendedFor = append(p.IntendedFor, path.Join(sesSeg, "dwi", imageName))
	}

	if in.Reverse != nil {
		// The reverse reference keeps the cumulative index so diffusion and
		// reverse acq tokens can never collide; its cross-reference list is
		// complete because every diffusion set is already planned.
		acq++
		sp, err := planAcquisition(cfg, *in.Reverse, acq, claims, prefix, subjectRel, p.IntendedFor)
		if err != nil {
			return nil, err
		}
		p.Reverse = &sp
	}

	if in.Structural != nil {
		sp, err := planStructural(cfg, *in.Structural, claims, prefix, subjectRel)
		if err != nil {
			return nil, err
		}
		p.Structural = &sp
	}

	if in.ReconDir != "" {
		fi, err := os.Stat(in.ReconDir)
		if err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("reconstruction source is not a directory: %s", in.ReconDir)
		}
		p.ReconSrc = in.ReconDir
		p.ReconRel = filepath.Join("sourcedata", "freesurfer", prefix)
	}

	return p, nil
}

// planAcquisition plans a diffusion or reverse-reference file set.
// intendedFor is non-nil only for the reverse set staged as a fieldmap.
func planAcquisition(
	cfg *config.Config,
	set FileSet,
	acq int,
	claims *naming.ClaimSet,
	prefix, subjectRel string,
	intendedFor []string,
) (SetPlan, error) {
	sp := SetPlan{Set: set, AcqIndex: acq, Shell: -1}

	if !strings.HasSuffix(set.Image, ImageExt) {
		return sp, fmt.Errorf("%s is not a %s image", set.Image, ImageExt)
	}

	reverse := set.Role == RoleReverseReference

	dirLabel, fallbackPED, err := resolveDirection(cfg, set)
	if err != nil {
		return sp, err
	}
	sp.DirLabel = dirLabel

	subdir := "dwi"
	nameFor := func(ext string) string {
		return naming.DiffusionName(prefix, naming.AcqIndexToken(acq), dirLabel, ext)
	}
	if reverse && cfg.RPERole == config.RPEFmap {
		subdir = "fmap"
		nameFor = func(ext string) string {
			return naming.ReverseReferenceName(prefix, naming.AcqIndexToken(acq), dirLabel, ext)
		}
	}

	// A reverse reference staged as a fieldmap carries no gradient tables;
	// staged as a dwi series it takes them when present (a pure b0 export
	// often has none).
	exts := set.companionExts()
	if reverse && cfg.RPERole == config.RPEFmap {
		exts = []string{ImageExt, ".json"}
	}

	var sidecarSrc string
	for _, ext := range exts {
		src := set.Companion(ext)
		if !fileExists(src) {
			switch {
			case ext == ImageExt:
				return sp, fmt.Errorf("%w: %s", ErrMissingCompanion, src)
			case ext == ".json":
				if cfg.Discovery() && cfg.Lenient {
					continue // synthesized below
				}
				return sp, fmt.Errorf("%w: %s", ErrMissingCompanion, src)
			default: // .bval / .bvec
				if cfg.Discovery() || reverse {
					continue
				}
				return sp, fmt.Errorf("%w: %s", ErrMissingCompanion, src)
			}
		}
		rel := filepath.Join(subjectRel, subdir, nameFor(ext))
		if err := claims.Claim(set.Image, rel); err != nil {
			return sp, err
		}
		if ext == ".json" {
			sidecarSrc = src
			sp.SidecarRel = rel
			continue
		}
		sp.Files = append(sp.Files, PlannedFile{Src: src, Rel: rel})
	}

	sp.Shell = inferShell(set)

	rec := sidecar.Record{}
	if sidecarSrc != "" {
		rec, err = sidecar.Load(sidecarSrc)
		if err != nil {
			return sp, fmt.Errorf("reading sidecar %s: %w", sidecarSrc, err)
		}
	} else {
		// Lenient synthesis still needs a destination for the record.
		rel := filepath.Join(subjectRel, subdir, nameFor(".json"))
		if err := claims.Claim(set.Image, rel); err != nil {
			return sp, err
		}
		sp.SidecarRel = rel
	}

	opts := sidecar.Options{
		Reverse:           reverse,
		FallbackDirection: fallbackPED,
	}
	if reverse && cfg.RPERole == config.RPEFmap {
		opts.IntendedFor = intendedFor
	}
	if err := sidecar.Normalize(rec, opts); err != nil {
		return sp, fmt.Errorf("normalizing sidecar for %s: %w", set.Base(), err)
	}
	sp.Sidecar = rec
	return sp, nil
}

// planStructural plans the T1w file set: image plus optional metadata,
// copied verbatim (structural sidecars are never rewritten).
func planStructural(
	cfg *config.Config,
	set FileSet,
	claims *naming.ClaimSet,
	prefix, subjectRel string,
) (SetPlan, error) {
	sp := SetPlan{Set: set}

	if !strings.HasSuffix(set.Image, ImageExt) {
		return sp, fmt.Errorf("%s is not a %s image", set.Image, ImageExt)
	}

	for _, ext := range set.companionExts() {
		src := set.Companion(ext)
		if !fileExists(src) {
			if ext == ImageExt || !cfg.Discovery() {
				return sp, fmt.Errorf("%w: %s", ErrMissingCompanion, src)
			}
			continue
		}
		rel := filepath.Join(subjectRel, "anat", naming.StructuralName(prefix, ext))
		if err := claims.Claim(set.Image, rel); err != nil {
			return sp, err
		}
		sp.Files = append(sp.Files, PlannedFile{Src: src, Rel: rel})
	}
	return sp, nil
}

// resolveDirection picks the canonical dir- label and, in discovery mode,
// the classifier-derived phase-encoding fallback for records that carry no
// axis field.
func resolveDirection(cfg *config.Config, set FileSet) (label, fallbackPED string, err error) {
	tok := set.Direction
	if tok == "" {
		tok, _ = naming.ParseDirection(set.Base(), hintTable(cfg))
	}

	if cfg.Discovery() && tok != "" {
		if axis, ok := naming.PhaseEncodingAxis(tok); ok {
			fallbackPED = axis
		}
	}

	switch cfg.DirLabels {
	case config.DirInferred:
		if tok == "" {
			return "", "", fmt.Errorf("%w: %s: no direction token or hint matched",
				naming.ErrUnresolvableDirection, set.Base())
		}
		return string(tok), fallbackPED, nil
	default: // generic
		if set.Role == RoleReverseReference {
			return "rev", fallbackPED, nil
		}
		return "fwd", fallbackPED, nil
	}
}

// inferShell returns the dominant diffusion shell for display: from the
// gradient-value companion when readable, else from a b<nnnn> filename
// token, else -1.
func inferShell(set FileSet) int {
	if raw, err := os.ReadFile(set.Companion(".bval")); err == nil {
		if shell, err := naming.PrimaryShell(string(raw)); err == nil {
			return shell
		}
	}
	if shell, ok := naming.ShellFromName(set.Base()); ok {
		return shell
	}
	return -1
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
