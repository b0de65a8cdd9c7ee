package errors

import (
	"math"
)

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AllFinite reports whether every value is finite.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if !IsFinite(v) {
			return false
		}
	}
	return true
}

// CheckParameters checks model parameters after an update step and returns
// a DivergedError if any of them is NaN or Inf.
func CheckParameters(epoch, batch int, values []float64) error {
	if AllFinite(values) {
		return nil
	}
	return NewDivergedError(epoch, batch, values)
}

// CheckScalar checks a scalar computed from the parameters at the given
// epoch, such as the epoch loss. A NaN or Inf value is reported as a
// DivergedError with batch -1 carrying params.
func CheckScalar(epoch int, value float64, params []float64) error {
	if IsFinite(value) {
		return nil
	}
	return NewDivergedError(epoch, -1, params)
}
