/*
Package logx is the schoolhub client's logging layer over zerolog.

Logs are diagnostics for whoever runs the CLI: outgoing requests, session
transitions and store failures. They always go to stderr so that command
output on stdout can be piped. Development mode writes human-readable console
lines at Debug level; any other environment writes JSON lines at Info level,
which --verbose can lower to Debug.

Call sites pass alternating key/value pairs after the message, e.g.
logx.Warn("Access denied", "path", path).
*/
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the process-wide logger for the CLI.
func InitGlobalLogger(isDevelopment bool) {
	initLogger(os.Stderr, isDevelopment)
}

func initLogger(out io.Writer, isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(out).With().Timestamp().Logger()
	if isDevelopment {
		logger = logger.
			Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
			Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// SetLevel overrides the level of the global logger.
func SetLevel(level zerolog.Level) {
	log.Logger = log.Logger.Level(level)
}

// Logger returns the global logger for call sites that need typed fields.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Debug logs request and session tracing, hidden unless --verbose or development mode.
func Debug(msg string, fields ...any) {
	emit(Logger().Debug(), "debug", msg, fields)
}

// Info logs a notable but expected event, such as a remote logout that failed.
func Info(msg string, fields ...any) {
	emit(Logger().Info(), "info", msg, fields)
}

// Warn logs a failure the client recovered from, such as a 403 or a missing profile.
func Warn(msg string, fields ...any) {
	emit(Logger().Warn(), "warn", msg, fields)
}

// Error logs err with msg. err may be nil when only a server message is known.
func Error(err error, msg string, fields ...any) {
	emit(Logger().Error().Err(err), "error", msg, fields)
}

// Fatal logs err and exits the process with status 1.
func Fatal(err error, msg string, fields ...any) {
	emit(Logger().Fatal().Err(err), "fatal", msg, fields)
}

// emit attaches the key/value fields and writes the event. The caller frame
// reported is the one that called Debug, Info, Warn, Error or Fatal.
func emit(e *zerolog.Event, level, msg string, fields []any) {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Str("log_level", level).
			Int("fields_count", len(fields)).
			Msg("logx: odd number of key/value fields, fields dropped")
		fields = nil
	}

	e.Fields(fields).CallerSkipFrame(2).Msg(msg)
}
