package domain

import "errors"

// ErrInvalidThreshold is returned for thresholds outside [0, 100].
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")

// Threshold represents a minimum coverage percentage (0-100).
// A zero threshold is unset and never fails a percentage.
type Threshold struct {
	value float64
}

// NewThreshold creates a new Threshold value object.
// Returns an error if the value is not between 0 and 100.
func NewThreshold(value float64) (Threshold, error) {
	if value < 0 || value > 100 {
		return Threshold{}, ErrInvalidThreshold
	}
	return Threshold{value: value}, nil
}

// IsSet reports whether the threshold is active.
func (t Threshold) IsSet() bool {
	return t.value > 0
}

// IsViolatedBy reports whether an active threshold is above the percentage.
// The boundary is exclusive: a percentage equal to the threshold passes.
func (t Threshold) IsViolatedBy(percentage float64) bool {
	return t.IsSet() && percentage < t.value
}
