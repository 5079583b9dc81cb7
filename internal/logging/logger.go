package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the process-wide JSON logger on stdout. Records always go
// through a redacting Fanout, which also feeds any extra handlers (typically
// a DBHandler). It returns the stdout-only logger for components that must
// not feed back into the extra handlers.
func Setup(level slog.Level, extra ...slog.Handler) *slog.Logger {
	return setup(os.Stdout, level, extra...)
}

func setup(w io.Writer, level slog.Level, extra ...slog.Handler) *slog.Logger {
	stdout := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	base := slog.New(NewFanout(stdout))

	if len(extra) == 0 {
		slog.SetDefault(base)
		return base
	}
	handlers := append([]slog.Handler{stdout}, extra...)
	slog.SetDefault(slog.New(NewFanout(handlers...)))
	return base
}

// ParseLevel maps APP_ENV to a log level.
func ParseLevel(env string) slog.Level {
	if env == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
