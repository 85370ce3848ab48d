// Command server runs the chat service with configuration from the
// environment only, for container deployments. The clawback CLI's serve
// command does the same with flags.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/clawback/internal/commands"
	"github.com/mmynk/clawback/internal/config"
	"github.com/mmynk/clawback/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg, err := config.Load(getEnv("CLAWBACK_CONFIG", "clawback.yaml"))
	if err != nil {
		logging.Setup("", true)
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, getEnv("LOG_FORMAT", "json") == "json")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.Serve(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
