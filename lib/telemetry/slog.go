package telemetry

import (
	"log/slog"
	"os"
)

// installs the process-wide slog handler. verbose lowers the level to
// debug, which also unlocks the per-message resty dumps that check
// slog.Default().Enabled() before writing.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
