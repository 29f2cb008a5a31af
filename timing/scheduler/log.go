package scheduler

import (
	"context"
	"log/slog"
)

// LevelTrace is the log level of per-cycle scheduler records. It sits below
// slog.LevelDebug so it only shows when asked for.
const LevelTrace slog.Level = slog.LevelDebug - 4

// Trace logs a record at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

func traceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}
