package log

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	sgderrors "github.com/YuminosukeSato/sgdreg/pkg/errors"
)

// ZerologLogger implements Logger on top of github.com/rs/zerolog.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a JSON logger writing to w that drops records
// below level.
func NewZerologLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(w).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

// NewConsoleLogger creates a human-readable logger for terminals.
func NewConsoleLogger(w io.Writer, level Level) *ZerologLogger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(toZerologLevel(level)).With().Timestamp().Logger()
	return &ZerologLogger{zl: zl}
}

func (z *ZerologLogger) Debug(msg string, fields ...any) {
	z.zl.Debug().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Info(msg string, fields ...any) {
	z.zl.Info().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Warn(msg string, fields ...any) {
	z.zl.Warn().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields ...any) {
	err, rest := splitError(fields)
	ev := z.zl.Error()
	if err != nil {
		ev = withError(ev, err)
	}
	ev.Fields(rest).Msg(msg)
}

func (z *ZerologLogger) With(fields ...any) Logger {
	return &ZerologLogger{zl: z.zl.With().Fields(fields).Logger()}
}

func (z *ZerologLogger) Enabled(_ context.Context, level Level) bool {
	return z.zl.GetLevel() <= toZerologLevel(level)
}

// InstallAsWarningHandler routes errors.Warn through this logger, using the
// warning's structured fields when it provides them.
func (z *ZerologLogger) InstallAsWarningHandler() {
	sgderrors.SetZerologWarnFunc(func(w error) {
		ev := z.zl.Warn()
		if m, ok := w.(zerolog.LogObjectMarshaler); ok {
			ev = ev.Object("warning", m)
		}
		ev.Msg(w.Error())
	})
}

// withError adds err, its structured detail and its stack trace to ev.
func withError(ev *zerolog.Event, err error) *zerolog.Event {
	ev = ev.Str(ErrAttrKey, err.Error())
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		ev = ev.Object("error_detail", m)
	}
	if st := extractStacktrace(err); st != "" {
		ev = ev.Str(StacktraceAttrKey, st)
	}
	return ev
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
