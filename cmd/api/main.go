// Package main is the weather API server.
//
// It loads configuration, connects to PostgreSQL (and Redis when configured),
// builds the weather and advice services, mounts the handlers on the core
// chassis and serves HTTP until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"meteo/internal/advisory"
	"meteo/internal/api/handlers"
	"meteo/internal/config"
	"meteo/internal/core"
	"meteo/internal/db"
	"meteo/internal/external"
	"meteo/internal/forecasts"
	"meteo/internal/scheduler"
	"meteo/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(config.NewFileProvider(os.Getenv("SECRETS_DIR")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel).With("service", cfg.Service)
	slog.SetDefault(logger)
	logger.Info("meteo API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Database.ApplySchema {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	srv, err := core.NewServer(cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	metrics := core.NewPrometheusMetrics(strings.ToLower(cfg.Service))
	srv.Metrics = metrics
	srv.MetricsHandler = metrics.Handler()
	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{ProbeName: "database", Fn: pool.Ping})

	serviceOpts := []forecasts.ServiceOption{forecasts.WithTTL(cfg.Cache.TTL)}
	if cfg.Cache.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword.Unmask(),
			DB:       cfg.Cache.RedisDB,
		})
		defer rdb.Close()

		cache, err := forecasts.NewRedisCache(rdb)
		if err != nil {
			return err
		}
		serviceOpts = append(serviceOpts, forecasts.WithCache(cache))
		srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
			ProbeName: "redis",
			Fn:        func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	weatherClient := external.NewOpenWeatherClient(external.NewHTTPClient(cfg.Weather.Timeout), external.OpenWeatherConfig{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Units:   cfg.Weather.Units,
		Lang:    cfg.Weather.Lang,
		Logger:  logger,
	})
	weather := forecasts.NewService(weatherClient, logger, serviceOpts...)
	advisor := advisory.NewAdvisor(newRemoteAdvisor(cfg.Advisor, logger), logger, advisory.WithRecorder(metrics))

	subscriptions := scheduler.NewSubscriptions(
		db.NewSubscriptionRepository(pool),
		cfg.Notification.DeliveryTime,
		cfg.Notification.Timezone,
		types.RealClock{},
	)

	weatherHandler := handlers.NewWeatherHandler(weather, advisor, srv.Validator, logger)
	favoritesHandler := handlers.NewFavoritesHandler(db.NewFavoriteRepository(pool), srv.Validator, logger)
	notificationsHandler := handlers.NewNotificationsHandler(subscriptions, srv.Validator, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		weatherHandler.RegisterRoutes,
		favoritesHandler.RegisterRoutes,
		notificationsHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return runHTTPServer(srv, cfg.Server, logger)
}

// newRemoteAdvisor returns nil when the remote advisor is disabled, which
// makes every piece of advice local.
func newRemoteAdvisor(cfg config.AdvisorConfig, logger *slog.Logger) advisory.RemoteClient {
	if !cfg.Enabled {
		logger.Info("remote advisor disabled, advice will be local")
		return nil
	}
	return external.NewMistralClient(external.NewHTTPClient(cfg.Timeout), external.MistralConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		Logger:      logger,
	})
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("creating database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

func runHTTPServer(srv *core.Server, cfg config.ServerConfig, logger *slog.Logger) error {
	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Advice can wait on the remote model for most of the request timeout.
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped cleanly")
	return nil
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
