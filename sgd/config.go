package sgd

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/sgdreg/pkg/errors"
	"github.com/YuminosukeSato/sgdreg/pkg/log"
)

// Config holds the hyperparameters of a Trainer.
type Config struct {
	// NumCoefficients must equal the number of table columns minus one.
	// A negative value infers it from the table.
	NumCoefficients int

	// BatchSize is the number of rows per minibatch.
	BatchSize int

	// TargetIndex is the target column. A negative value selects the last column.
	TargetIndex int

	// LearningRate scales every update step.
	LearningRate float64

	// MaxIterations is the epoch budget.
	MaxIterations int

	// Mode selects how per-example gradients are aggregated.
	Mode Mode

	// Tol is the minimum loss improvement for early stopping. 0 disables it.
	Tol float64

	// NIterNoChange is how many epochs without a Tol improvement end training as Converged.
	NIterNoChange int

	// RandomState seeds the random source. A negative value seeds from the clock.
	RandomState int64
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		NumCoefficients: -1,
		BatchSize:       32,
		TargetIndex:     -1,
		LearningRate:    0.01,
		MaxIterations:   100,
		Mode:            BatchMean,
		Tol:             0,
		NIterNoChange:   5,
		RandomState:     -1,
	}
}

// Validate checks the settings that do not depend on the table.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	if !(c.LearningRate > 0) || !errors.IsFinite(c.LearningRate) {
		return errors.NewValidationError("learning_rate", "must be positive and finite", c.LearningRate)
	}
	if c.MaxIterations <= 0 {
		return errors.NewValidationError("max_iterations", "must be positive", c.MaxIterations)
	}
	if c.Mode != BatchMean && c.Mode != PerExample {
		return errors.NewValidationError("mode", "unknown mode", int(c.Mode))
	}
	if c.Tol < 0 || !errors.IsFinite(c.Tol) {
		return errors.NewValidationError("tol", "must be non-negative and finite", c.Tol)
	}
	if c.Tol > 0 && c.NIterNoChange <= 0 {
		return errors.NewValidationError("n_iter_no_change", "must be positive when tol is set", c.NIterNoChange)
	}
	return nil
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(t *Trainer) {
		t.config = cfg
	}
}

// WithNumCoefficients sets the number of coefficients.
func WithNumCoefficients(n int) Option {
	return func(t *Trainer) {
		t.config.NumCoefficients = n
	}
}

// WithBatchSize sets the minibatch size.
func WithBatchSize(size int) Option {
	return func(t *Trainer) {
		t.config.BatchSize = size
	}
}

// WithTargetIndex sets the target column.
func WithTargetIndex(index int) Option {
	return func(t *Trainer) {
		t.config.TargetIndex = index
	}
}

// WithLearningRate sets the learning rate.
func WithLearningRate(lr float64) Option {
	return func(t *Trainer) {
		t.config.LearningRate = lr
	}
}

// WithMaxIterations sets the epoch budget.
func WithMaxIterations(n int) Option {
	return func(t *Trainer) {
		t.config.MaxIterations = n
	}
}

// WithMode sets the gradient mode.
func WithMode(mode Mode) Option {
	return func(t *Trainer) {
		t.config.Mode = mode
	}
}

// WithTol sets the early stopping tolerance.
func WithTol(tol float64) Option {
	return func(t *Trainer) {
		t.config.Tol = tol
	}
}

// WithNIterNoChange sets the patience used with Tol.
func WithNIterNoChange(n int) Option {
	return func(t *Trainer) {
		t.config.NIterNoChange = n
	}
}

// WithRandomState sets the seed.
func WithRandomState(seed int64) Option {
	return func(t *Trainer) {
		t.config.RandomState = seed
	}
}

// WithRand injects the random source. It takes precedence over RandomState.
func WithRand(rng *rand.Rand) Option {
	return func(t *Trainer) {
		t.rng = rng
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger log.Logger) Option {
	return func(t *Trainer) {
		if logger != nil {
			t.logger = logger
		}
	}
}
