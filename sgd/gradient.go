package sgd

import (
	"github.com/YuminosukeSato/sgdreg/linear"
	"github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// Mode selects how per-example gradients of the squared loss
// L = (predict(x) - y)² are turned into parameter updates.
type Mode int

const (
	// BatchMean takes one step per minibatch using the mean residual-weighted
	// features, (1/N)·Σ r·x, with intercept gradient (1/N)·Σ r. The constant
	// factor 2 of the squared loss is folded into the learning rate.
	BatchMean Mode = iota

	// PerExample takes one step per example using the exact gradient 2·r·x,
	// with intercept gradient 2·r.
	PerExample
)

func (m Mode) String() string {
	switch m {
	case BatchMean:
		return "batch_mean"
	case PerExample:
		return "per_example"
	default:
		return "unknown"
	}
}

// ParseMode converts the names returned by Mode.String back to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "batch_mean", "batch-mean", "mean":
		return BatchMean, nil
	case "per_example", "per-example", "example":
		return PerExample, nil
	default:
		return BatchMean, errors.NewValidationError("mode", "must be batch_mean or per_example", s)
	}
}

// Gradient holds the partial derivatives of the loss with respect to each
// coefficient and to the intercept.
type Gradient struct {
	Coefficients []float64
	Intercept    float64
}

// ComputeGradient returns the loss gradient of m over the given examples.
// All shapes are checked before any arithmetic: an empty batch yields an
// EmptyBatchError, a features/targets length mismatch a DimensionError on
// axis 0 and a feature row of the wrong length a DimensionError on axis 1.
//
// In PerExample mode the result is the gradient of the summed per-example
// loss; the trainer calls it with one example at a time.
func ComputeGradient(features [][]float64, targets []float64, m *linear.Model, mode Mode) (Gradient, error) {
	const op = "sgd.ComputeGradient"

	if len(features) == 0 {
		return Gradient{}, errors.NewEmptyBatchError(op)
	}
	if len(features) != len(targets) {
		return Gradient{}, errors.NewDimensionError(op, len(features), len(targets), 0)
	}
	n := m.NumCoefficients()
	for _, x := range features {
		if len(x) != n {
			return Gradient{}, errors.NewDimensionError(op, n, len(x), 1)
		}
	}

	scale := 2.0
	if mode == BatchMean {
		scale = 1 / float64(len(features))
	}

	grad := Gradient{Coefficients: make([]float64, n)}
	for i, x := range features {
		p, err := m.Predict(x)
		if err != nil {
			return Gradient{}, err
		}
		r := p - targets[i]
		for j, xj := range x {
			grad.Coefficients[j] += r * xj
		}
		grad.Intercept += r
	}

	for j := range grad.Coefficients {
		grad.Coefficients[j] *= scale
	}
	grad.Intercept *= scale
	return grad, nil
}
