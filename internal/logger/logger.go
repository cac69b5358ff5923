// Package logger installs the process-wide slog handler from the log section
// of the config.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/evanofslack/clouddns-console/internal/config"
)

const service = "clouddns-console"

func Configure(cfg config.Log) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, cfg)))
}

// newHandler uses tint for local development and JSON everywhere else. JSON
// lines carry the service name so they can be told apart in shared sinks;
// debug level adds the source location.
func newHandler(w io.Writer, cfg config.Log) slog.Handler {
	level := parseLogLevel(cfg.Level)
	if isDev(cfg.Env) {
		return tint.NewHandler(w, &tint.Options{Level: level, AddSource: level <= slog.LevelDebug})
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug})
	return h.WithAttrs([]slog.Attr{slog.String("service", service)})
}

func isDev(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local":
		return true
	}
	return false
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
