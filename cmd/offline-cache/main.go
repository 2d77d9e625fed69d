package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/offline"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// version tags the cache generation; override with -ldflags "-X main.version=...".
var version = "storefront-v1"

func main() {
	logg := logger.New(logger.Options{ServiceName: "offline-cache"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "offline-cache",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"version": version,
		"origin":  cfg.Offline.OriginURL,
		"storage": cfg.Offline.Storage,
	})

	var storage offline.CacheStorage = offline.NewMemoryStorage()
	if cfg.Offline.UsesRedis() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisStorage, err := offline.NewRedisStorage(redisClient)
		requireResource(ctx, logg, "redis cache storage", err)
		storage = redisStorage
	}

	fetcher, err := offline.NewOriginFetcher(cfg.Offline.OriginURL, cfg.Offline.FetchTimeout)
	requireResource(ctx, logg, "origin fetcher", err)

	registry := prometheus.NewRegistry()
	cacheMetrics := metrics.NewOfflineCacheMetrics(registry)

	worker, err := offline.NewWorker(offline.WorkerConfig{
		Version: version,
		Bypass:  offline.DefaultBypass(cfg.Offline.DatabaseHost),
	}, storage, fetcher, logg, cacheMetrics)
	requireResource(ctx, logg, "worker", err)

	host := offline.NewHost(fetcher, logg)
	if err := host.Deploy(ctx, worker); err != nil {
		// without a controller every request goes straight to the origin
		logg.Error(ctx, "offline worker deploy failed", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Offline.Port,
		Handler:           routes.NewOfflineRouter(logg, host, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "starting offline cache server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "offline cache server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down offline cache server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "offline cache shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "resource not working", err)
	os.Exit(1)
}
