package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"

	"github.com/neexbeast/partiu085-web/internal/api"
	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/cache"
	"github.com/neexbeast/partiu085-web/internal/destination"
	"github.com/neexbeast/partiu085-web/internal/poller"
	"github.com/neexbeast/partiu085-web/internal/storage"
	"github.com/neexbeast/partiu085-web/migrations"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := parseConfig(os.Args[1:], os.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(2)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.BackendURL, log, backend.WithRateLimit(cfg.BackendRPS, 1))
	log.Info("backend configured", "url", client.BaseURL())

	pingers := map[string]api.Pinger{"backend": client, "redis": nil, "db": nil}

	// Redis is optional: without it the catalog and status live in memory only.
	var (
		listCache   destination.ListCache
		statusStore poller.StatusStore
	)
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		c := cache.NewCache(redisClient)
		listCache, statusStore = c, c
		pingers["redis"] = cache.Pinger{Client: redisClient}
		log.Info("redis cache enabled")
	}

	// PostgreSQL is optional: without it the radar page shows no history.
	var history api.SearchHistory
	if cfg.DatabaseURL != "" {
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := storage.RunMigrations(ctx, pool, migrations.FS); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")

		history = storage.NewRepository(pool)
		pingers["db"] = pool
	}

	catalog := destination.NewCatalog(func(ctx context.Context) []destination.Destination {
		return client.Destinations(ctx).Destinations
	}, listCache, log)

	monitor := poller.NewMonitor(client, statusStore, cfg.PollInterval, log)
	go func() {
		_ = monitor.Run(ctx)
	}()

	handlers, err := api.NewHandlers(client, catalog, history, monitor, log, api.WithLocation(cfg.Location))
	if err != nil {
		return fmt.Errorf("building handlers: %w", err)
	}
	router := api.NewRouter(handlers, cfg.RequestsPerMinute, pingers, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}
