package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. The run_id field ties every line of
// one invocation together, since the job is fired repeatedly by an external
// scheduler.
func NewLogger(format string, verbose bool, output io.Writer, version, runID string) zerolog.Logger {
	if output == nil {
		output = os.Stdout
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	switch format {
	case "json":
		logger = zerolog.New(output)
	default:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339})
	}

	var application string
	if len(os.Args) > 0 {
		application = filepath.Base(os.Args[0])
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", application).
		Str("version", version).
		Str("run_id", runID).
		Logger()
}
