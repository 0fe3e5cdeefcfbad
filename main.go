// Package main is the entry point for the order desk client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gitlab.com/chanrith/orderdesk/internal/app"
	"gitlab.com/chanrith/orderdesk/internal/cache"
	"gitlab.com/chanrith/orderdesk/internal/config"
	"gitlab.com/chanrith/orderdesk/internal/gateway"
	"gitlab.com/chanrith/orderdesk/internal/logger"
	"gitlab.com/chanrith/orderdesk/internal/notify"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("orderdesk %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open local cache")
	}

	gw := gateway.New(cfg.GatewayURL, cfg.GatewayTimeout)

	notifier, err := notify.NewFromToken(cfg.TelegramBotToken)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create notifier")
	}

	application := app.New(cfg, store, gw, notifier)
	defer func() { _ = application.Close() }()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	if err := application.Ping(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Gateway is unreachable")
	}

	landing, err := application.Bootstrap(ctx, false)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to bootstrap")
	}
	logger.Log.Info().Stringer("view", landing.View).Msg("Ready")

	<-ctx.Done()
}
