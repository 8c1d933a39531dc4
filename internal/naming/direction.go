package naming

import (
	"errors"
	"regexp"
	"strings"
)

// DirectionToken is an uppercase two-letter phase-encoding direction label
// embedded in (or inferred from) an acquisition filename.
type DirectionToken string

// Known direction tokens. An explicit dir-XX filename token outside this set
// is still returned as-is; it only fails later if a phase-encoding axis has
// to be derived from it.
const (
	DirAP DirectionToken = "AP"
	DirPA DirectionToken = "PA"
	DirLR DirectionToken = "LR"
	DirRL DirectionToken = "RL"
	DirSI DirectionToken = "SI"
	DirIS DirectionToken = "IS"
)

// ErrUnresolvableDirection reports that no direction token or hint matched a
// filename, or that a phase-encoding direction could not be derived for a
// metadata record.
var ErrUnresolvableDirection = errors.New("unresolvable phase-encoding direction")

// DirHint maps a lowercase substring to the direction it implies. Hints are
// evaluated in order against the lowercased basename padded with separator
// boundaries; first match wins.
type DirHint struct {
	Match string
	Token DirectionToken
}

// DefaultHints are the site-acquisition naming conventions seen in practice:
// "...b1000app..." marks the forward AP pass, "...b1000apa..." the reversed
// PA pass. "app" must precede "apa" so the longer forward spelling is not
// shadowed.
var DefaultHints = []DirHint{
	{"app", DirAP},
	{"apa", DirPA},
	{"_ap_", DirAP},
	{"-ap-", DirAP},
	{"_pa_", DirPA},
	{"-pa-", DirPA},
}

// reDirToken matches an explicit dir-XX token bounded by separators, e.g.
// "series_dir-AP_run1.nii.gz".
var reDirToken = regexp.MustCompile(`(?i)(?:^|[_-])dir-([A-Za-z]{2})(?:[_-]|$)`)

// ParseDirection infers the phase-encoding direction token for a file
// basename. An explicit dir-XX token is authoritative regardless of any
// hint substrings also present; otherwise hints are tried in order. The
// second return is false when the direction is undetermined.
func ParseDirection(basename string, hints []DirHint) (DirectionToken, bool) {
	basename = trimImageExt(basename)
	if m := reDirToken.FindStringSubmatch(basename); m != nil {
		return DirectionToken(strings.ToUpper(m[1])), true
	}
	low := "_" + strings.ToLower(basename) + "_"
	for _, h := range hints {
		if strings.Contains(low, h.Match) {
			return h.Token, true
		}
	}
	return "", false
}

// trimImageExt drops a trailing .nii or .nii.gz so tokens at the end of the
// stem sit on a real boundary.
func trimImageExt(basename string) string {
	basename = strings.TrimSuffix(basename, ".gz")
	return strings.TrimSuffix(basename, ".nii")
}

// phaseEncodingAxes maps direction tokens to BIDS PhaseEncodingDirection
// codes: traversal toward the negative end of an axis carries the "-"
// polarity marker (anterior→posterior is j-).
var phaseEncodingAxes = map[DirectionToken]string{
	DirAP: "j-",
	DirPA: "j",
	DirRL: "i-",
	DirLR: "i",
	DirSI: "k-",
	DirIS: "k",
}

// PhaseEncodingAxis returns the BIDS axis code for a direction token.
func PhaseEncodingAxis(tok DirectionToken) (string, bool) {
	axis, ok := phaseEncodingAxes[DirectionToken(strings.ToUpper(string(tok)))]
	return axis, ok
}

// opposites pairs each direction token with its reversed-polarity partner on
// the same axis.
var opposites = map[DirectionToken]DirectionToken{
	DirAP: DirPA, DirPA: DirAP,
	DirLR: DirRL, DirRL: DirLR,
	DirSI: DirIS, DirIS: DirSI,
}

// Opposite returns the reverse-polarity token on the same axis.
func Opposite(tok DirectionToken) (DirectionToken, bool) {
	op, ok := opposites[DirectionToken(strings.ToUpper(string(tok)))]
	return op, ok
}
