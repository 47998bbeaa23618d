package main

import (
	"context"
	"log/slog"
	"os"

	"teahouse/internal/app"
	"teahouse/internal/config"
	"teahouse/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	application, err := app.NewUsersAPI(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
