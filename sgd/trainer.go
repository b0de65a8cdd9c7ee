// Package sgd fits a linear.Model to a dataset.Table by mini-batch stochastic
// gradient descent.
//
// A Trainer moves through the states Initializing, Training and one of
// Converged, Diverged or BudgetExhausted. Each epoch reshuffles the table into
// minibatches and applies updates in place, sequentially, checking every
// parameter for NaN or Inf after each update.
//
// Example:
//
//	trainer := sgd.NewTrainer(
//	    sgd.WithBatchSize(10),
//	    sgd.WithLearningRate(0.01),
//	    sgd.WithMaxIterations(500),
//	    sgd.WithRandomState(42),
//	)
//	res, err := trainer.Train(table)
package sgd

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sgdreg/dataset"
	"github.com/YuminosukeSato/sgdreg/linear"
	"github.com/YuminosukeSato/sgdreg/metrics"
	"github.com/YuminosukeSato/sgdreg/pkg/errors"
	"github.com/YuminosukeSato/sgdreg/pkg/log"
)

// State is the lifecycle state of a Trainer.
type State int

const (
	Initializing State = iota
	Training
	Converged
	Diverged
	BudgetExhausted
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Training:
		return "Training"
	case Converged:
		return "Converged"
	case Diverged:
		return "Diverged"
	case BudgetExhausted:
		return "BudgetExhausted"
	default:
		return "Unknown"
	}
}

// Result is the outcome of a successful Train call.
type Result struct {
	Model *linear.Model

	// State is Converged or BudgetExhausted.
	State State

	// Epochs is the number of completed epochs.
	Epochs int

	// History holds the mean squared error over the training table after
	// each epoch.
	History []float64

	Duration time.Duration
}

// FinalLoss returns the last recorded epoch loss, or NaN if none.
func (r *Result) FinalLoss() float64 {
	if len(r.History) == 0 {
		return math.NaN()
	}
	return r.History[len(r.History)-1]
}

// Trainer runs mini-batch SGD. A Trainer owns its random source, so two
// trainers built with the same RandomState produce identical models on
// identical input. Train calls on one Trainer are serialized.
type Trainer struct {
	mu     sync.Mutex
	config Config
	rng    *rand.Rand
	logger log.Logger
	state  State
}

// NewTrainer returns a Trainer configured by DefaultConfig and options.
func NewTrainer(options ...Option) *Trainer {
	t := &Trainer{
		config: DefaultConfig(),
		logger: log.GetLoggerWithName("sgd"),
	}
	for _, opt := range options {
		opt(t)
	}

	if t.rng == nil {
		if seed := t.config.RandomState; seed >= 0 {
			t.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
		} else {
			now := uint64(time.Now().UnixNano())
			t.rng = rand.New(rand.NewPCG(now, now^0xdeadbeef))
		}
	}
	return t
}

// Config returns the trainer configuration.
func (t *Trainer) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// State returns the state reached by the most recent Train call.
func (t *Trainer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Train fits a new randomly initialized model to table.
//
// It fails with a ValidationError or DimensionError for an invalid
// configuration, a ModelError wrapping ErrEmptyData for an empty table and a
// DivergedError as soon as any parameter, or an epoch loss, becomes NaN or
// Inf. Reaching MaxIterations is a success with state BudgetExhausted.
func (t *Trainer) Train(table *dataset.Table) (res *Result, err error) {
	defer errors.Recover(&err, "Trainer.Train")

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = Initializing
	cfg, err := t.resolve(table)
	if err != nil {
		return nil, err
	}

	logger := t.logger.With(
		log.ModelNameKey, linear.ModelType,
		log.OperationKey, log.OperationFit,
	)

	features, target, err := table.ExtractFeatureTarget(cfg.TargetIndex)
	if err != nil {
		return nil, err
	}
	yTrue := mat.NewVecDense(len(target), target)

	m := linear.NewRandomModel(cfg.NumCoefficients, t.rng)

	logger.Info("Training started",
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, table.Len(),
		log.FeaturesKey, cfg.NumCoefficients,
		log.BatchSizeKey, cfg.BatchSize,
		log.LearningRateKey, cfg.LearningRate,
		log.MaxIterationsKey, cfg.MaxIterations,
		log.ModeKey, cfg.Mode.String(),
		log.RandomSeedKey, cfg.RandomState,
	)

	start := time.Now()
	history := make([]float64, 0, cfg.MaxIterations)
	bestLoss := math.Inf(1)
	noImprovement := 0
	final := BudgetExhausted

	t.state = Training
	for epoch := 0; epoch < cfg.MaxIterations; epoch++ {
		batches, err := table.ShuffledMinibatches(cfg.BatchSize, t.rng)
		if err != nil {
			return nil, err
		}

		for b, batch := range batches {
			x, y, err := batch.ExtractFeatureTarget(cfg.TargetIndex)
			if err != nil {
				return nil, err
			}
			if err := t.step(m, x, y, cfg, epoch, b); err != nil {
				return nil, t.fail(logger, err, epoch)
			}
		}

		loss, err := epochLoss(m, features, yTrue)
		if err != nil {
			return nil, err
		}
		if err := errors.CheckScalar(epoch, loss, m.Params()); err != nil {
			return nil, t.fail(logger, err, epoch)
		}
		history = append(history, loss)

		if logger.Enabled(context.Background(), log.LevelDebug) {
			logger.Debug("Epoch finished",
				log.EpochKey, epoch,
				log.LossKey, loss,
				log.BatchesKey, len(batches),
			)
		}

		if cfg.Tol > 0 {
			if loss > bestLoss-cfg.Tol {
				noImprovement++
			} else {
				noImprovement = 0
			}
			if loss < bestLoss {
				bestLoss = loss
			}
			if noImprovement >= cfg.NIterNoChange {
				final = Converged
				break
			}
		}
	}

	t.state = final
	res = &Result{
		Model:    m,
		State:    final,
		Epochs:   len(history),
		History:  history,
		Duration: time.Since(start),
	}

	if final == BudgetExhausted && cfg.Tol > 0 {
		errors.Warn(errors.NewConvergenceWarning("sgd.Trainer", res.Epochs,
			"maximum number of iterations reached before the loss stopped improving"))
	}

	logger.Info("Training finished",
		log.StateKey, final.String(),
		log.EpochsKey, res.Epochs,
		log.LossKey, res.FinalLoss(),
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}

// resolve fills in defaults that depend on table and validates cfg against it.
func (t *Trainer) resolve(table *dataset.Table) (Config, error) {
	cfg := t.config
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if table == nil || table.Len() == 0 {
		return cfg, errors.NewModelError("Trainer.Train", "empty data", errors.ErrEmptyData)
	}

	cols := table.NumColumns()
	if cfg.TargetIndex < 0 {
		cfg.TargetIndex = cols - 1
	}
	if cfg.TargetIndex >= cols {
		return cfg, errors.NewValidationError("target_column_index", "out of range", cfg.TargetIndex)
	}
	if cfg.NumCoefficients < 0 {
		cfg.NumCoefficients = cols - 1
	}
	if cfg.NumCoefficients != cols-1 {
		return cfg, errors.NewDimensionError("Trainer.Train", cols-1, cfg.NumCoefficients, 1)
	}
	return cfg, nil
}

// step applies the updates for one minibatch.
func (t *Trainer) step(m *linear.Model, x [][]float64, y []float64, cfg Config, epoch, batch int) error {
	if cfg.Mode == PerExample {
		for i := range x {
			if err := update(m, x[i:i+1], y[i:i+1], cfg, epoch, batch); err != nil {
				return err
			}
		}
		return nil
	}
	return update(m, x, y, cfg, epoch, batch)
}

func update(m *linear.Model, x [][]float64, y []float64, cfg Config, epoch, batch int) error {
	grad, err := ComputeGradient(x, y, m, cfg.Mode)
	if err != nil {
		return err
	}
	if err := m.Step(grad.Coefficients, grad.Intercept, cfg.LearningRate); err != nil {
		return err
	}
	return errors.CheckParameters(epoch, batch, m.Params())
}

func (t *Trainer) fail(logger log.Logger, err error, epoch int) error {
	var diverged *errors.DivergedError
	if errors.As(err, &diverged) {
		t.state = Diverged
		logger.Error("Training diverged", err,
			log.StateKey, Diverged.String(),
			log.EpochKey, epoch,
			log.SuggestionKey, "reduce the learning rate or normalize the features",
		)
	}
	return err
}

// epochLoss returns the mean squared error of m over the whole table.
func epochLoss(m *linear.Model, features [][]float64, yTrue *mat.VecDense) (float64, error) {
	predictions, err := m.PredictAll(features)
	if err != nil {
		return 0, err
	}
	return metrics.MSE(yTrue, mat.NewVecDense(len(predictions), predictions))
}

// Train is a convenience wrapper that fits a model with the given
// hyperparameters and random source and returns only the model.
func Train(table *dataset.Table, numCoefficients, batchSize, targetIndex int, learningRate float64, maxIterations int, rng *rand.Rand) (*linear.Model, error) {
	trainer := NewTrainer(
		WithNumCoefficients(numCoefficients),
		WithBatchSize(batchSize),
		WithTargetIndex(targetIndex),
		WithLearningRate(learningRate),
		WithMaxIterations(maxIterations),
		WithRand(rng),
	)
	res, err := trainer.Train(table)
	if err != nil {
		return nil, err
	}
	return res.Model, nil
}
