// Package retrieval implements structured and semantic movie retrieval:
// filter parsing, safe SQL construction, and a flat vector index.
package retrieval

import "errors"

var (
	// ErrDimensionMismatch is returned when vectors do not match the index
	// dimension. The add is rejected as a whole.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrIndexUnavailable is returned when a persisted index cannot be
	// loaded from disk.
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
