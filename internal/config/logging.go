package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger returns a logger writing text to stderr and, when logFile is
// set, JSON lines to that file. The cleanup func closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	noop := func() error { return nil }
	if logFile == "" {
		return slog.New(textHandler(os.Stderr, level)), noop
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(textHandler(os.Stderr, level))
		logger.Warn("log file unavailable, logging to stderr only", "file", logFile, "error", err)
		return logger, noop
	}
	return SetupLoggerWithWriters(os.Stderr, file, level), file.Close
}

// SetupLoggerWithWriters fans out to a text handler on stderr and a JSON
// handler on file.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogmulti.Fanout(
		textHandler(stderr, level),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}

// WithCommand tags every record with the running subcommand.
func WithCommand(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("cmd", name))
}

func textHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
