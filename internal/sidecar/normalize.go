package sidecar

import (
	"fmt"
	"strings"

	"github.com/neurostage/bidsify/internal/naming"
)

// Options controls how [Normalize] rewrites a record.
type Options struct {
	// Reverse marks the record as belonging to a reverse phase-encoding
	// acquisition: a direction derived from the axis field gets its
	// polarity toggled.
	Reverse bool

	// IntendedFor, when non-nil, fully replaces the record's cross-reference
	// list with the given diffusion output paths (relative to the subject
	// directory, in staging order). Nil leaves any existing value alone.
	IntendedFor []string

	// FallbackDirection is a classifier-derived phase-encoding code ("j",
	// "j-", ...) used only when the record carries neither a direction nor
	// an axis field. Empty means no fallback is available.
	FallbackDirection string
}

// Normalize rewrites a record in place:
//
//  1. migrates the deprecated EstimatedTotalReadoutTime field into
//     TotalReadoutTime (unless the target already holds a usable value) and
//     removes the deprecated key;
//  2. replaces IntendedFor when Options.IntendedFor is non-nil;
//  3. derives a missing or blank PhaseEncodingDirection from
//     PhaseEncodingAxis (toggling polarity for reverse acquisitions), or
//     from Options.FallbackDirection when the axis field is absent too.
//
// Steps 1 and 3 are idempotent: a second call on the same record is a no-op.
// Step 2 deliberately overwrites, since the cross-reference list must always
// reflect the current run's diffusion outputs. Failure to derive a direction
// returns an error wrapping [naming.ErrUnresolvableDirection] and leaves no
// blank field behind.
func Normalize(rec Record, opts Options) error {
	if _, ok := rec[KeyEstimatedTotalReadoutTime]; ok {
		if rec.empty(KeyTotalReadoutTime) {
			rec[KeyTotalReadoutTime] = rec[KeyEstimatedTotalReadoutTime]
		}
		delete(rec, KeyEstimatedTotalReadoutTime)
	}

	if opts.IntendedFor != nil {
		rec[KeyIntendedFor] = append([]string(nil), opts.IntendedFor...)
	}

	if rec.blank(KeyPhaseEncodingDirection) {
		ped := rec.stringField(KeyPhaseEncodingAxis)
		switch {
		case ped != "":
			if opts.Reverse {
				ped = togglePolarity(ped)
			}
		case opts.FallbackDirection != "":
			ped = opts.FallbackDirection
		default:
			return fmt.Errorf("%w: record has neither %s nor %s",
				naming.ErrUnresolvableDirection, KeyPhaseEncodingDirection, KeyPhaseEncodingAxis)
		}
		rec[KeyPhaseEncodingDirection] = ped
	}

	return nil
}

// togglePolarity flips a phase-encoding code between its positive and
// negative form: "j" ↔ "j-".
func togglePolarity(ped string) string {
	if strings.Contains(ped, "-") {
		return strings.ReplaceAll(ped, "-", "")
	}
	return ped + "-"
}
