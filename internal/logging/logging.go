package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the default slog logger. LOG_LEVEL picks the level and
// LOG_FILE, when set, redirects output away from the terminal the arena draws on.
// The returned closer releases the log file, if any.
func Init() io.Closer {
	level := slog.LevelError // default: production only shows errors

	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = ParseLevel(l)
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out, closer = f, f
		}
	}

	logger := slog.New(
		slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: level,
		}),
	)
	slog.SetDefault(logger)
	return closer
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values mean errors only.
func ParseLevel(l string) slog.Level {
	switch l {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
