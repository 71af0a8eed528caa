package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counterparty_analyzer/pkg/api"
	"counterparty_analyzer/pkg/config"
	"counterparty_analyzer/pkg/core/pipeline"
	"counterparty_analyzer/pkg/core/store"
	"counterparty_analyzer/pkg/logging"

	"github.com/phuslu/log"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	components, err := pipeline.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize analyzer")
	}
	defer store.Close()

	log.Info().Int("prompts", components.Prompts.Count()).Int("indicators", components.Catalog.Len()).Msg("analyzer initialized")

	health := components.Agents.Health(ctx)
	if !health.Reachable || !health.ModelAvailable {
		log.Warn().Str("provider", components.Agents.ActiveProvider()).Str("model", health.ConfiguredModel).Str("error", health.Error).Msg("inference backend not ready")
	}

	app := api.NewApp(api.Deps{
		Pipeline:    components.Orchestrator,
		Agents:      components.Agents,
		APIKey:      cfg.Auth.APIKey,
		BodyLimitMB: cfg.Server.BodyLimitMB,
	})

	go func() {
		log.Info().Str("addr", cfg.Server.Addr()).Msg("API server starting")
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			log.Error().Err(err).Msg("server stopped")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
