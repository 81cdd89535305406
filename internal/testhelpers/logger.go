// Package testhelpers wires loggers into tests.
package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/workoutcal/internal/logging"
)

// NewLogger returns a debug-level text logger with context attributes that writes to sink, usually a Writer.
func NewLogger(sink io.Writer) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(sink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
}
