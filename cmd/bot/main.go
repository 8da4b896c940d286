package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/app"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/cheapshark"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/config"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/notifier"
	"github.com/PKHarsimran/discord-coop-game-deals-bot/internal/steam"
)

func main() {
	// A .env file is a local convenience; in CI the variables come from
	// the workflow environment.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	cfg := config.Load()
	if cfg.DiscordWebhookURL == "" {
		slog.Warn("DISCORD_WEBHOOK_URL not set, skipping run")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	clients := app.Clients{
		CheapShark: cheapshark.New(),
		Steam:      steam.New(),
		Notifier:   notifier.New(cfg.DiscordWebhookURL, cfg.DiscordWebhookUsername),
	}

	if err := app.Run(ctx, cfg, clients); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}
