package core

import "errors"

// Sentinel errors for the rendering core. Call sites wrap these with
// fmt.Errorf("...: %w", ...) so callers can test with errors.Is.
var (
	// ErrInvalidGeometry reports a degenerate field of view or a
	// non-positive image resolution.
	ErrInvalidGeometry = errors.New("splat: invalid camera geometry")

	// ErrShapeMismatch reports splat attributes whose per-splat
	// dimensionality disagrees with what the operation expects.
	ErrShapeMismatch = errors.New("splat: attribute shape mismatch")

	// ErrGradientUnavailable reports that a gradient capability was
	// requested from a rasterizer that does not provide it.
	ErrGradientUnavailable = errors.New("splat: gradient unavailable")
)
