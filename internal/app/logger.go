package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production always gets JSON output;
// elsewhere the format follows LOG_FORMAT and includes source locations.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
