// Package naming provides label sanitization, phase-encoding direction
// classification, diffusion shell inference, canonical BIDS name templates,
// and output-path collision tracking.
package naming
