package ladder

import "errors"

// Sentinel errors for the ladder package.
// Use errors.Is to check: errors.Is(err, ladder.ErrStageUnmapped)
var (
	ErrStageUnmapped   = errors.New("ladder: no interval mapped for stage")
	ErrInvalidInterval = errors.New("ladder: stage interval must be positive")
)
