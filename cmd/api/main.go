package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zauberjournal/journal-api/api/routes"
	"github.com/zauberjournal/journal-api/internal/cron"
	"github.com/zauberjournal/journal-api/internal/iconmappings"
	"github.com/zauberjournal/journal-api/internal/icons"
	"github.com/zauberjournal/journal-api/internal/notifications"
	"github.com/zauberjournal/journal-api/pkg/config"
	"github.com/zauberjournal/journal-api/pkg/db"
	"github.com/zauberjournal/journal-api/pkg/enums"
	"github.com/zauberjournal/journal-api/pkg/env"
	"github.com/zauberjournal/journal-api/pkg/iconapi"
	"github.com/zauberjournal/journal-api/pkg/instance"
	"github.com/zauberjournal/journal-api/pkg/logger"
	"github.com/zauberjournal/journal-api/pkg/metrics"
	"github.com/zauberjournal/journal-api/pkg/migrate"
	"github.com/zauberjournal/journal-api/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields: map[string]any{
			"env":      cfg.App.Env,
			"instance": instance.GetID(),
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg.Named("db"))
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.AutoMigrate(ctx, cfg, logg.Named("migrate"), dbClient, migrate.DefaultDir); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg.Named("redis"))
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Info(ctx, "redis disabled, idempotency replay is off and rate limits are per process")
	}

	center, err := notifications.NewCenter(logg.Named("notifications"),
		notifications.WithMetrics(metrics.NewNotificationMetrics(prometheus.DefaultRegisterer)),
		notifications.WithDefaultDuration(enums.NotificationTypeSuccess, cfg.Notifications.SuccessDuration),
		notifications.WithDefaultDuration(enums.NotificationTypeError, cfg.Notifications.ErrorDuration),
		notifications.WithDefaultDuration(enums.NotificationTypeInfo, cfg.Notifications.InfoDuration),
		notifications.WithDefaultDuration(enums.NotificationTypeWarning, cfg.Notifications.WarningDuration),
	)
	if err != nil {
		logg.Error(ctx, "failed to create notification center", err)
		os.Exit(1)
	}

	iconClient, err := iconapi.NewClient(cfg.Icons.BaseURL, iconapi.WithTimeout(cfg.Icons.FetchTimeout))
	if err != nil {
		logg.Error(ctx, "failed to create icon api client", err)
		os.Exit(1)
	}

	resolver, err := icons.NewResolver(iconClient, logg.Named("icons"), metrics.NewIconCacheMetrics(prometheus.DefaultRegisterer))
	if err != nil {
		logg.Error(ctx, "failed to create icon resolver", err)
		os.Exit(1)
	}

	mappingsService, err := iconmappings.NewService(iconmappings.NewRepository(dbClient.DB()), resolver, logg.Named("iconmappings"))
	if err != nil {
		logg.Error(ctx, "failed to create icon mappings service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithField(ctx, "addr", addr)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logg.Error(ctx, "failed to listen", err)
		os.Exit(1)
	}

	server := &http.Server{
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, nil, center, resolver, mappingsService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serverErr <- server.Serve(listener)
	}()

	// The icon table may be served by this process, so load only once the
	// listener accepts connections.
	go func() {
		result := resolver.Load(ctx)
		loadCtx := logg.WithFields(ctx, map[string]any{"state": result.State, "count": result.Count})
		logg.Info(loadCtx, "icon cache startup load finished")
	}()

	if cfg.Icons.RefreshEnabled() {
		go runIconRefresh(ctx, cfg, logg.Named("cron"), resolver)
	}

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	center.Reset(shutdownCtx)
	logg.Info(ctx, "api server stopped")
}

func runIconRefresh(ctx context.Context, cfg *config.Config, logg *logger.Logger, resolver *icons.Resolver) {
	job, err := cron.NewIconRefreshJob(cron.IconRefreshJobParams{Logger: logg, Cache: resolver})
	if err != nil {
		logg.Error(ctx, "failed to create icon refresh job", err)
		return
	}

	registry := cron.NewRegistry()
	if err := registry.Register(job); err != nil {
		logg.Error(ctx, "failed to register icon refresh job", err)
		return
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       cron.NewLocalLock(),
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Icons.RefreshInterval,
		JobTimeout: 2 * cfg.Icons.FetchTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		return
	}

	logg.Info(logg.WithField(ctx, "interval", service.Interval().String()), "starting icon refresh")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "icon refresh stopped unexpectedly", err)
	}
}
