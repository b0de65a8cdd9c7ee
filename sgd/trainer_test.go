package sgd

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sgdreg/dataset"
	"github.com/YuminosukeSato/sgdreg/linear"
	"github.com/YuminosukeSato/sgdreg/pkg/errors"
	"github.com/YuminosukeSato/sgdreg/pkg/log"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// lineTable returns n points of y = 2x + 1 with x in [-1, 1] and noise in
// [-0.01, 0.01].
func lineTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	rng := newRNG(2024)
	rows := make([][]float64, n)
	for i := range rows {
		x := rng.Float64()*2 - 1
		noise := (rng.Float64()*2 - 1) * 0.01
		rows[i] = []float64{x, 2*x + 1 + noise}
	}
	tbl, err := dataset.New([]string{"x", "y"}, rows)
	require.NoError(t, err)
	return tbl
}

// planeTable returns n points of y = 1 + 2*x1 - 3*x2 with small noise. The
// target is the first column.
func planeTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	rng := newRNG(77)
	rows := make([][]float64, n)
	for i := range rows {
		x1 := rng.Float64()*2 - 1
		x2 := rng.Float64()*2 - 1
		noise := (rng.Float64()*2 - 1) * 0.05
		rows[i] = []float64{1 + 2*x1 - 3*x2 + noise, x1, x2}
	}
	tbl, err := dataset.New([]string{"y", "x1", "x2"}, rows)
	require.NoError(t, err)
	return tbl
}

func quietLogger() *log.TestLogger {
	logger, _ := log.NewTestLogger(log.LevelError)
	return logger
}

func TestTrainRecoversLine(t *testing.T) {
	tbl := lineTable(t, 100)

	m, err := Train(tbl, 1, 10, 1, 0.01, 500, newRNG(42))
	require.NoError(t, err)

	coef := m.Coefficients()
	require.Len(t, coef, 1)
	assert.InDelta(t, 2.0, coef[0], 0.1)
	assert.InDelta(t, 1.0, m.Intercept(), 0.1)

	r2, err := m.Score(tbl, 1)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.99)
}

func TestTrainIsReproducible(t *testing.T) {
	tbl := lineTable(t, 60)

	train := func() *Result {
		trainer := NewTrainer(
			WithBatchSize(7),
			WithLearningRate(0.05),
			WithMaxIterations(20),
			WithRandomState(5),
			WithLogger(quietLogger()),
		)
		res, err := trainer.Train(tbl)
		require.NoError(t, err)
		return res
	}

	a, b := train(), train()
	assert.Equal(t, a.Model.Params(), b.Model.Params())
	assert.Equal(t, a.History, b.History)

	other, err := NewTrainer(
		WithBatchSize(7),
		WithLearningRate(0.05),
		WithMaxIterations(20),
		WithRandomState(6),
		WithLogger(quietLogger()),
	).Train(tbl)
	require.NoError(t, err)
	assert.NotEqual(t, a.Model.Params(), other.Model.Params())
}

func TestTrainDiverges(t *testing.T) {
	tbl := lineTable(t, 100)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	trainer := NewTrainer(
		WithBatchSize(10),
		WithLearningRate(1e6),
		WithMaxIterations(100),
		WithRandomState(1),
		WithLogger(logger),
	)
	res, err := trainer.Train(tbl)
	require.Error(t, err)
	assert.Nil(t, res)

	var diverged *errors.DivergedError
	require.True(t, errors.As(err, &diverged), "got %v", err)
	assert.LessOrEqual(t, diverged.Epoch, 10)
	// パラメータが溢れる前にエポック損失が溢れた場合は Batch が -1 になる
	assert.GreaterOrEqual(t, diverged.Batch, -1)
	assert.Len(t, diverged.Values, 2)

	assert.Equal(t, Diverged, trainer.State())
	assert.True(t, logger.ContainsMessage("Training diverged"))
	assert.True(t, logger.ContainsField(log.StateKey, "Diverged"))
}

func TestTrainPerExampleMode(t *testing.T) {
	tbl := lineTable(t, 100)

	res, err := NewTrainer(
		WithMode(PerExample),
		WithBatchSize(10),
		WithLearningRate(0.01),
		WithMaxIterations(200),
		WithRandomState(3),
		WithLogger(quietLogger()),
	).Train(tbl)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, res.Model.Coefficients()[0], 0.1)
	assert.InDelta(t, 1.0, res.Model.Intercept(), 0.1)
}

func TestTrainMatchesNormalEquation(t *testing.T) {
	tbl := planeTable(t, 200)

	res, err := NewTrainer(
		WithTargetIndex(0),
		WithNumCoefficients(2),
		WithBatchSize(20),
		WithLearningRate(0.05),
		WithMaxIterations(300),
		WithRandomState(11),
		WithLogger(quietLogger()),
	).Train(tbl)
	require.NoError(t, err)

	X, y, err := tbl.Design(0)
	require.NoError(t, err)
	exact, err := linear.FitNormalEquation(X, y)
	require.NoError(t, err)

	assert.InDeltaSlice(t, exact.Params(), res.Model.Params(), 0.02)
	assert.InDeltaSlice(t, []float64{1, 2, -3}, res.Model.Params(), 0.05)

	// 損失は学習を通じて下がる
	require.NotEmpty(t, res.History)
	assert.Less(t, res.FinalLoss(), res.History[0])
	assert.Equal(t, BudgetExhausted, res.State)
	assert.Equal(t, 300, res.Epochs)
}

func TestTrainConvergesWithTol(t *testing.T) {
	tbl := lineTable(t, 100)

	res, err := NewTrainer(
		WithBatchSize(10),
		WithLearningRate(0.1),
		WithMaxIterations(1000),
		WithTol(1e-3),
		WithNIterNoChange(3),
		WithRandomState(8),
		WithLogger(quietLogger()),
	).Train(tbl)
	require.NoError(t, err)

	assert.Equal(t, Converged, res.State)
	assert.Less(t, res.Epochs, 1000)
	assert.Len(t, res.History, res.Epochs)
}

func TestTrainWarnsWhenBudgetExhaustedWithTol(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(func(w error) { warnings = append(warnings, w) })
	defer errors.SetZerologWarnFunc(nil)

	res, err := NewTrainer(
		WithBatchSize(10),
		WithLearningRate(0.01),
		WithMaxIterations(3),
		WithTol(1e-12),
		WithRandomState(8),
		WithLogger(quietLogger()),
	).Train(lineTable(t, 50))
	require.NoError(t, err)
	assert.Equal(t, BudgetExhausted, res.State)

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, 3, cw.Iterations)

	// Tol が無効なら警告しない
	warnings = nil
	_, err = NewTrainer(WithMaxIterations(2), WithRandomState(1), WithLogger(quietLogger())).Train(lineTable(t, 20))
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestTrainValidation(t *testing.T) {
	tbl := lineTable(t, 10)

	tests := []struct {
		name  string
		opts  []Option
		check func(t *testing.T, err error)
	}{
		{"zero batch size", []Option{WithBatchSize(0)}, isValidationError},
		{"negative learning rate", []Option{WithLearningRate(-0.1)}, isValidationError},
		{"zero max iterations", []Option{WithMaxIterations(0)}, isValidationError},
		{"unknown mode", []Option{WithMode(Mode(9))}, isValidationError},
		{"negative tol", []Option{WithTol(-1)}, isValidationError},
		{"target out of range", []Option{WithTargetIndex(2)}, isValidationError},
		{"coefficient count mismatch", []Option{WithNumCoefficients(3)}, func(t *testing.T, err error) {
			var dimErr *errors.DimensionError
			require.True(t, errors.As(err, &dimErr), "got %v", err)
			assert.Equal(t, 1, dimErr.Expected)
			assert.Equal(t, 3, dimErr.Got)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithRandomState(1), WithLogger(quietLogger())}, tt.opts...)
			trainer := NewTrainer(opts...)
			res, err := trainer.Train(tbl)
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)
			assert.Equal(t, Initializing, trainer.State())
		})
	}
}

func isValidationError(t *testing.T, err error) {
	t.Helper()
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr), "got %v", err)
}

func TestTrainEmptyTable(t *testing.T) {
	empty, err := dataset.New([]string{"x", "y"}, nil)
	require.NoError(t, err)

	_, err = NewTrainer(WithLogger(quietLogger())).Train(empty)
	assert.True(t, errors.Is(err, errors.ErrEmptyData), "got %v", err)

	_, err = Train(nil, 1, 1, 1, 0.1, 1, newRNG(1))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestTrainLogsProgress(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)

	res, err := NewTrainer(
		WithBatchSize(5),
		WithMaxIterations(4),
		WithRandomState(2),
		WithLogger(logger),
	).Train(lineTable(t, 20))
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("Training started"))
	assert.True(t, logger.ContainsMessage("Epoch finished"))
	assert.True(t, logger.ContainsMessage("Training finished"))
	assert.True(t, logger.ContainsField(log.SamplesKey, float64(20)))
	assert.True(t, logger.ContainsField(log.BatchSizeKey, float64(5)))
	assert.True(t, logger.ContainsField(log.StateKey, "BudgetExhausted"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, linear.ModelType))

	entries, err := logger.Entries()
	require.NoError(t, err)
	var epochs int
	for _, e := range entries {
		if e["message"] == "Epoch finished" {
			epochs++
		}
	}
	assert.Equal(t, res.Epochs, epochs)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Initializing", Initializing.String())
	assert.Equal(t, "Training", Training.String())
	assert.Equal(t, "Converged", Converged.String())
	assert.Equal(t, "Diverged", Diverged.String())
	assert.Equal(t, "BudgetExhausted", BudgetExhausted.String())
	assert.Equal(t, "Unknown", State(42).String())
}
