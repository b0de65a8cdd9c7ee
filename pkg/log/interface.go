// Package log provides a structured logging interface for sgdreg training runs.
//
// The Logger interface is slog-compatible so callers can plug in any backend.
// Two backends ship with the package: a zerolog-based logger, which is the
// library default, and an adapter over *slog.Logger for programs that have
// already configured log/slog (see SetupLogger).
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "SGDLinearRegression",
//	)
//	logger.Info("Training started",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.BatchSizeKey, 32,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. If the first field passed to Error
// is an error value, implementations log it under ErrAttrKey together with
// its stack trace when one is available.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	//
	// Example:
	//   logger.Error("Training diverged",
	//       err,
	//       log.EpochKey, 12,
	//   )
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip building expensive fields:
	//
	//   if logger.Enabled(ctx, log.LevelDebug) {
	//       logger.Debug("weights", "values", model.Coefficients())
	//   }
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
