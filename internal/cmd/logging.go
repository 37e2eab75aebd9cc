package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var logger *slog.Logger

// initLogging sets up the process logger from --log-level, --log-format and
// --verbose, and makes it the slog default.
func initLogging() {
	level := parseLevel(viper.GetString("log.level"))
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger = newLogger(os.Stderr, level, viper.GetString("log.format"))
	slog.SetDefault(logger)
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
