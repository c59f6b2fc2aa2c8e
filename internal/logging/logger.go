// Package logging configures slog for the server: JSON on stdout, with
// ERROR+ records also persisted to the system_logs table when Postgres is
// the store.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs the stdout JSON logger as the default.
func Setup(appEnv string) {
	slog.SetDefault(slog.New(NewStdoutHandler(appEnv)))
}

// NewStdoutHandler logs at DEBUG in development and INFO everywhere else.
func NewStdoutHandler(appEnv string) slog.Handler {
	level := slog.LevelInfo
	if appEnv == "development" {
		level = slog.LevelDebug
	}
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}
