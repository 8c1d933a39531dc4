package pipeline

import "errors"

// Error kinds surfaced by planning. All abort the invocation: they are
// data-preparation failures that retrying cannot fix. Collision and
// direction errors live with their owning packages
// ([naming.ErrNamingCollision], [naming.ErrUnresolvableDirection]);
// registry corruption with [registry.ErrCorrupt].
var (
	// ErrMissingCompanion reports a required payload, gradient, or metadata
	// file absent from a declared or discovered file set.
	ErrMissingCompanion = errors.New("missing companion file")

	// ErrUnresolvableRole reports a discovered file that cannot be
	// classified as diffusion, reverse-reference, or structural.
	ErrUnresolvableRole = errors.New("cannot classify acquisition role")
)
