package naming

import "regexp"

// UnknownLabel is substituted when sanitization strips every character of a
// raw identifier.
const UnknownLabel = "UNKNOWN"

var reNonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// SanitizeLabel reduces an arbitrary external identifier (an XNAT subject or
// session label) to a BIDS-safe label: runs of non-alphanumeric characters
// are removed outright, not replaced with a separator. An empty result
// becomes [UnknownLabel]. Idempotent.
func SanitizeLabel(raw string) string {
	cleaned := reNonAlnum.ReplaceAllString(raw, "")
	if cleaned == "" {
		return UnknownLabel
	}
	return cleaned
}
