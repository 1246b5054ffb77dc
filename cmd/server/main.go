package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/saucecodee/praise/internal/adapter/httpserver"
	"github.com/saucecodee/praise/internal/adapter/metrics"
	"github.com/saucecodee/praise/internal/adapter/postgres"
	"github.com/saucecodee/praise/internal/adapter/redis"
	"github.com/saucecodee/praise/internal/app"
	"github.com/saucecodee/praise/internal/platform/config"
	"github.com/saucecodee/praise/internal/platform/logging"
	"github.com/saucecodee/praise/internal/platform/version"
)

const (
	startupTimeout        = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
	cacheEvictionInterval = time.Minute
)

func runGracefulShutdown(srv *httpserver.Server, stopBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopBackground()
		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, reg prometheus.Registerer) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, metrics.NewDBMetrics(reg))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(cfg *config.Config, reg prometheus.Registerer) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, metrics.NewRedisMetrics(reg))
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	reg := metrics.NewRegistry()

	pool := setupDB(cfg, reg)
	defer pool.Close()

	repos := app.Repositories{
		Periods:         postgres.NewPeriodRepo(pool),
		Praise:          postgres.NewPraiseRepo(pool),
		Quantifications: postgres.NewQuantificationRepo(pool),
		Settings:        postgres.NewSettingRepo(pool),
		Users:           postgres.NewUserRepo(pool),
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	opts := []app.Option{app.WithMetrics(metrics.NewEngineMetrics(reg))}
	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
	}

	if cfg.RedisURL != "" {
		redisClient := setupRedis(cfg, reg)
		defer func() { _ = redisClient.Close() }()

		cache := redis.NewSettingsCache(redisClient, repos.Settings, clock, cfg.SettingsCacheTTL, metrics.NewCacheMetrics(reg))
		stopEviction := cache.StartEvictionTimer(cacheEvictionInterval)
		defer stopEviction()

		go redis.NewSettingsInvalidationSubscriber(redisClient, cache).Start(bgCtx)

		opts = append(opts,
			app.WithSettingSource(cache),
			app.WithSettingInvalidator(cache),
			app.WithPeriodLocker(redis.NewPeriodLock(redisClient)),
		)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:     "redis",
			Check:    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			Optional: true,
		})
	} else {
		slog.Info("REDIS_URL not set, running without settings cache and transition lock")
	}

	appSvc := app.NewService(repos, clock, opts...)

	seedCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	if err := appSvc.SeedSettings(seedCtx); err != nil {
		cancel()
		slog.Error("Failed to seed settings", "error", err)
		os.Exit(1)
	}
	cancel()

	srv := httpserver.NewServer(cfg, appSvc, reg, healthChecks)
	done := runGracefulShutdown(srv, stopBackground)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
