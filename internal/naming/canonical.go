package naming

import "fmt"

// EntityPrefix assembles the subject (and optional session) entity portion
// shared by every canonical name in a run: "sub-X" or "sub-X_ses-Y". Both
// labels must already be sanitized.
func EntityPrefix(subject, session string) string {
	if session == "" {
		return "sub-" + subject
	}
	return fmt.Sprintf("sub-%s_ses-%s", subject, session)
}

// AcqIndexToken formats a sequential acquisition index as the fixed
// two-digit acq token.
func AcqIndexToken(i int) string {
	return fmt.Sprintf("%02d", i)
}

// DiffusionName builds the canonical basename for a primary diffusion
// series companion: <prefix>_acq-<acq>_dir-<dir>_dwi<ext>.
func DiffusionName(prefix, acq, dir, ext string) string {
	return fmt.Sprintf("%s_acq-%s_dir-%s_dwi%s", prefix, acq, dir, ext)
}

// ReverseReferenceName builds the canonical basename for a reverse
// phase-encoding reference companion: <prefix>_acq-<acq>_dir-<dir>_epi<ext>.
func ReverseReferenceName(prefix, acq, dir, ext string) string {
	return fmt.Sprintf("%s_acq-%s_dir-%s_epi%s", prefix, acq, dir, ext)
}

// StructuralName builds the canonical basename for a structural image
// companion: <prefix>_T1w<ext>.
func StructuralName(prefix, ext string) string {
	return fmt.Sprintf("%s_T1w%s", prefix, ext)
}
