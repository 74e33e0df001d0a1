// Package logging builds the structured logger shared by all commands.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

type Config struct {
	// Output defaults to os.Stderr
	Output io.Writer

	// Level is debug, info, warn or error (default info)
	Level string

	JSON bool
}

func New(cfg Config) (*log.Logger, error) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := log.InfoLevel
	if cfg.Level != "" {
		parsed, err := log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", cfg.Level)
		}
		level = parsed
	}

	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}
	if cfg.JSON {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(output, opts), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
