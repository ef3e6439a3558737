package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"leadhook/internal/api"
	"leadhook/internal/api/handlers"
	"leadhook/internal/api/middleware"
	"leadhook/internal/engine/webhooks"
	"leadhook/internal/pkg/logger"
	"leadhook/internal/platform/auth"
	"leadhook/internal/platform/config"
	"leadhook/internal/platform/database"
	"leadhook/internal/platform/metrics"
	"leadhook/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
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

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Repositories
	endpointRepo := repositories.NewEndpointRepository(db)
	mappingRepo := repositories.NewMappingRepository(db)
	sampleRepo := repositories.NewSampleRepository(db)
	requestRepo := repositories.NewRequestRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	processor := webhooks.NewProcessor(webhooks.Stores{
		Endpoints: endpointRepo,
		Requests:  requestRepo,
		Samples:   sampleRepo,
		Mappings:  mappingRepo,
		Users:     userRepo,
		Contacts:  repositories.NewContactRepository(db),
		Leads:     repositories.NewLeadRepository(db),
	}, webhooks.OptionsFromConfig(cfg.Remote), metrics.NewWebhookMetrics(registry))

	if cfg.Remote.URL == "" {
		log.Info().Msg("No remote processor configured, active webhooks run locally")
	}

	// Middleware
	proxies, err := middleware.NewProxyTrust(cfg.RateLimit.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid rate_limit.trusted_proxies")
	}
	webhookLimiter := middleware.NewRateLimiter(cfg.RateLimit.WebhookPerMinute)
	defer webhookLimiter.Close()
	apiLimiter := middleware.NewRateLimiter(cfg.RateLimit.APIPerMinute)
	defer apiLimiter.Close()

	// Router
	deps := &api.Dependencies{
		WebhookHandler:   handlers.NewWebhookHandler(processor, cfg.Server.IsProduction()),
		EndpointHandler:  handlers.NewEndpointHandler(endpointRepo, mappingRepo, sampleRepo, requestRepo),
		HealthHandler:    handlers.NewHealthHandler(db),
		MetricsHandler:   handlers.NewMetricsHandler(registry),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc),
		TenantMiddleware: middleware.NewTenantMiddleware(userRepo),
		WebhookLimiter:   webhookLimiter,
		APILimiter:       apiLimiter,
		Proxies:          proxies,
		CORS:             cfg.CORS,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
