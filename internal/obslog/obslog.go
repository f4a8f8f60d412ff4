// Package obslog sets up the process-wide structured logger. It wraps
// charmbracelet/log the way a CLI entrypoint typically does: one leveled,
// optionally file-backed logger handed to every collaborator that needs to
// report progress (internal/solver stays silent — the core performs no I/O).
package obslog

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options configures the process logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// FilePath, if non-empty, tees output to this file in addition to stderr.
	FilePath string
}

// New builds a *log.Logger from opts. The returned logger is safe to share
// across goroutines; charmbracelet/log serializes writes internally.
func New(opts Options) (*log.Logger, error) {
	var out io.Writer = os.Stderr

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	logger.SetLevel(parseLevel(opts.Level))
	return logger, nil
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
