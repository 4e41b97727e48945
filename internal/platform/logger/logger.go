package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Handlers and services take
// it as a dependency rather than using the slog default so tests can pass a
// discard logger.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
