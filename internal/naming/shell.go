package naming

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// unweightedThreshold separates b=0 (and noise-level) acquisitions from
// diffusion-weighted ones.
const unweightedThreshold = 10

// reShellToken matches a b-value token embedded in a filename, e.g.
// "901_dti_2min_b1000apa_fov140".
var reShellToken = regexp.MustCompile(`(?i)(?:^|[_-])b(\d{3,5})(?:[^0-9]|$)`)

// PrimaryShell returns the dominant diffusion-weighting shell from the text
// of a gradient-value (.bval) file: values are parsed as whitespace-separated
// numbers, rounded to the nearest integer, filtered of unweighted volumes,
// and the most frequent remaining value wins. Frequency ties resolve to the
// numerically smallest value. stat.Mode reports only the modal count when
// several values share it, so the winning value is picked by scanning the
// sorted slice for the first run of that length. Returns 0 when only
// unweighted volumes are present.
func PrimaryShell(bvalText string) (int, error) {
	fields := strings.Fields(bvalText)
	var shells []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, fmt.Errorf("bad gradient value %q: %w", f, err)
		}
		if v > unweightedThreshold {
			shells = append(shells, math.Round(v))
		}
	}
	if len(shells) == 0 {
		return 0, nil
	}
	sort.Float64s(shells)
	_, modalCount := stat.Mode(shells, nil)

	runLen := 1
	for i := 1; i <= len(shells); i++ {
		if i < len(shells) && shells[i] == shells[i-1] {
			runLen++
			continue
		}
		if float64(runLen) == modalCount {
			return int(shells[i-1]), nil
		}
		runLen = 1
	}
	return int(shells[0]), nil // not reached: some run always has the modal count
}

// ShellFromName extracts a b<nnnn> shell token from a filename, the fallback
// used when no gradient-value file is available.
func ShellFromName(basename string) (int, bool) {
	m := reShellToken.FindStringSubmatch(basename)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
