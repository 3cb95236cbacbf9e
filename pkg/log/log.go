package log

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

func parseLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Setup(logLevel string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	})))
}

// SetupPretty installs a colorized handler for interactive terminal use.
func SetupPretty(logLevel string) {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(logLevel),
		TimeFormat: "15:04:05",
	})))
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
