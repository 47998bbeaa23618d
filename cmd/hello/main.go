package main

import (
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

	if err := app.NewHello(cfg).Run(); err != nil {
		slog.Error("hello server failed", "error", err)
		os.Exit(1)
	}
}
