// Package sgdreg fits linear regression models to numeric tables with
// mini-batch stochastic gradient descent.
//
// A training run loads a table, optionally scales columns, splits the rows
// at random into training and validation sets, trains with reshuffled
// minibatches every epoch and scores the result with R². All randomness
// comes from one injected *rand.Rand, so a fixed seed reproduces a run
// exactly.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "math/rand/v2"
//
//	    "github.com/YuminosukeSato/sgdreg/dataset"
//	    "github.com/YuminosukeSato/sgdreg/sgd"
//	)
//
//	func main() {
//	    table, err := dataset.LoadFile("players.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    rng := rand.New(rand.NewPCG(42, 42))
//	    train, validation, err := table.Split(0.8, rng)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    model, err := sgd.Train(train, table.NumColumns()-1, 10, 2, 0.01, 500, rng)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    r2, err := model.Score(validation, 2)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("R² = %.4f\n", r2)
//	}
//
// # Packages
//
//   - dataset: Table loading, splitting, shuffled minibatches and column scaling
//   - linear: the intercept + coefficients model, scoring and a normal-equation baseline
//   - sgd: gradient computation and the Trainer state machine
//   - metrics: R², residual sums, MSE, RMSE and MAE
//   - preprocessing: min-max and standard scalers for single columns
//   - core/model: fitted state, ModelWeights documents and their persistence
//   - pkg/errors: typed errors, warnings and numerical checks
//   - pkg/log: structured logging with zerolog and log/slog backends
//
// # Divergence
//
// After every update step the trainer checks each parameter for NaN and
// Inf. The first non-finite value stops training with an
// errors.DivergedError that records the epoch, the batch and the offending
// parameters. Lower the learning rate or normalize the features when this
// happens.
package sgdreg
