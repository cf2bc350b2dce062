package flowcore

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ============================================================================
// LOGGING — structured logger construction. Grounded on adred-codev-ws_poc's
// logger.go, trimmed to the pieces flowcore itself needs (Source, Sink,
// Topology and the operators each hold a zerolog.Logger); the rest of that
// file's helpers (LogPanic, stack-trace logging) belong to a server process,
// not a library, so they aren't carried here.
// ============================================================================

// LogFormat selects the logger's output encoding.
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatPretty LogFormat = "pretty"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level  zerolog.Level
	Format LogFormat
	Output io.Writer // defaults to os.Stdout if nil
}

// NewLogger builds a zerolog.Logger per config, stamped with a "component"
// field identifying it as belonging to this engine (distinct from whatever
// service embeds it).
func NewLogger(config LoggerConfig) zerolog.Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	if config.Format == LogFormatPretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}
	zerolog.SetGlobalLevel(config.Level)
	return zerolog.New(output).With().Timestamp().Str("component", "flowcore").Logger()
}

// SetGlobalLogger installs logger as the package-wide default (log.Logger),
// used by operators constructed without an explicit logger of their own.
func SetGlobalLogger(logger zerolog.Logger) {
	log.Logger = logger
}
