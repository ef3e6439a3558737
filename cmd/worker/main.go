package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"leadhook/internal/pkg/logger"
	"leadhook/internal/platform/config"
	"leadhook/internal/platform/database"
	"leadhook/internal/platform/repositories"
	"leadhook/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Run a single maintenance pass and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if closer := logger.Init(cfg.Logging); closer != nil {
		defer closer.Close()
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	m := &workers.Maintenance{
		Store:      repositories.NewRequestRepository(db),
		Interval:   cfg.Workers.PruneInterval,
		StaleAfter: cfg.Workers.StaleAfter,
		Retention:  cfg.Workers.RequestRetention,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		m.RunOnce(ctx)
		return
	}

	log.Info().Dur("interval", m.Interval).Msg("Starting leadhook background workers")
	m.Run(ctx)
	log.Info().Msg("Workers stopped")
}
