// ABOUTME: Structured logger setup shared by the CLI, viewer and MCP server
// ABOUTME: Logs go to stderr so stdout stays clean for command output and MCP stdio

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every log line.
const Prefix = "beacon"

// Options controls logger construction.
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// New builds a logger from opts. An empty level means info.
func New(opts Options) (*log.Logger, error) {
	level := log.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	formatter := log.TextFormatter
	if opts.JSON {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Formatter:       formatter,
	}), nil
}

// Setup builds a logger and installs it as the package default so code
// that calls log.Default() picks it up.
func Setup(opts Options) (*log.Logger, error) {
	logger, err := New(opts)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that writes nowhere, for tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
