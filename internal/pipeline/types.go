package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/neurostage/bidsify/internal/naming"
)

// Role classifies an acquisition file set. Assigned exactly once, never
// reassigned.
type Role string

const (
	RolePrimaryDiffusion Role = "diffusion"
	RoleReverseReference Role = "reverse-reference"
	RoleStructural       Role = "structural"
	RoleReconstruction   Role = "reconstruction"
)

// ImageExt is the payload image extension shared by every acquisition.
const ImageExt = ".nii.gz"

// Companion extensions per role, in staging order. The payload image comes
// first so a file set is never left without its image.
var (
	diffusionExts  = []string{ImageExt, ".bval", ".bvec", ".json"}
	structuralExts = []string{ImageExt, ".json"}
)

// FileSet is one logical acquisition: a payload image plus the companion
// files sharing its stem (gradient values, gradient directions, metadata).
type FileSet struct {
	Image     string // absolute or caller-relative path to the payload image
	Role      Role
	Direction naming.DirectionToken // resolved token; empty when undetermined or irrelevant
}

// Stem returns the image path without its extension; companions differ from
// it only by extension.
func (f FileSet) Stem() string {
	return strings.TrimSuffix(f.Image, ImageExt)
}

// Companion returns the path of the companion file with the given extension.
func (f FileSet) Companion(ext string) string {
	return f.Stem() + ext
}

// Base returns the image basename, used in logs and classification.
func (f FileSet) Base() string {
	return filepath.Base(f.Image)
}

// companionExts returns the extension list for the set's role.
func (f FileSet) companionExts() []string {
	if f.Role == RoleStructural {
		return structuralExts
	}
	return diffusionExts
}

// Inputs is the resolved set of input groups for one invocation, either
// declared by argument or produced by [Discover].
type Inputs struct {
	Diffusion  []FileSet
	Reverse    *FileSet
	Structural *FileSet
	ReconDir   string // precomputed reconstruction source; "" only in lenient discovery
}
