package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the JSON logger used by every process. Records logged
// with a context carry trace_id/span_id and the acting user when present.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(NewContextHandler(handler))
}
