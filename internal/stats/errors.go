package stats

import "errors"

// Sentinel errors for the numeric core. Callers match with errors.Is; call
// sites add context with fmt.Errorf("...: %w", err).
var (
	// ErrInsufficientData indicates a series shorter than the algorithm minimum.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateInput indicates zero-variance or otherwise unusable input,
	// e.g. a constant x vector handed to linear regression.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrSingularSystem indicates pivot collapse during Gaussian elimination.
	// For Yule-Walker fits the caller should retry with a lower model order.
	ErrSingularSystem = errors.New("singular linear system")

	// ErrNoData indicates that zero actualized observations were supplied.
	ErrNoData = errors.New("no data")
)
