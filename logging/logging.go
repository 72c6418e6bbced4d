// Package logging wires up the structured logger the engine, the config
// loader, and the CLI write generation summaries, warnings, and failures
// through. Backend retries and degraded calls are not logged; degraded
// calls are counted in the generation stats instead.
package logging

import (
	"log/slog"
	"os"
)

// New returns a text-handler slog.Logger. verbose selects Debug level over
// the default Info, mirroring the teacher's Verbose config flag.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
