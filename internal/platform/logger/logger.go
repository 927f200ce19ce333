package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog.
// Development mode lowers the level to Debug so heuristic rejections are
// visible while iterating on the form.
func New(development bool) *slog.Logger {
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
