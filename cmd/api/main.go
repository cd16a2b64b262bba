package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/crucial707/api-bootstrap/internal/config"
	"github.com/crucial707/api-bootstrap/internal/server"
)

func main() {
	if err := run(os.Stderr); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, then blocks serving the API. It returns only on a
// configuration, bind, or serve error.
func run(logOut io.Writer) error {
	// .env first so its values are visible to config.Load
	if err := config.LoadEnvFile(config.EnvFile()); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(logOut, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.MetricsPort > 0 {
		go func() {
			if err := server.ServeMetrics(cfg.MetricsPort, logger); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	return server.New(cfg, logger).Run()
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
