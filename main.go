package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"foodfront/internal/api"
	"foodfront/internal/config"
	"foodfront/internal/handlers"
	"foodfront/internal/models"
	"foodfront/internal/repositories"
	"foodfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		panic(err)
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- Durable client storage ---
	store, closeStore, err := newStore(cfg)
	if err != nil {
		log.Fatal("failed to open client storage", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app := newApp(ctx, cfg, store, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server",
			zap.String("port", cfg.AppPort), zap.String("backend", cfg.APIBaseURL), zap.String("store", cfg.StoreDriver))
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Warn("error during Fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}

// newApp wires the REST client, the session registry and the handlers. Idle
// sessions are swept until ctx is done.
func newApp(ctx context.Context, cfg config.Config, store repositories.KeyValueStore, log *zap.Logger) *fiber.App {
	backend := api.NewBackend(api.Config{
		BaseURL:            cfg.APIBaseURL,
		Timeout:            cfg.HTTPTimeout,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
	}, nil, log)
	sessions := services.NewSessions(store, backend, log)
	sessions.SetIdleTimeout(cfg.SessionIdleTimeout)
	if cfg.SessionIdleTimeout > 0 {
		go sessions.RunJanitor(ctx, cfg.SessionIdleTimeout/2)
	}
	return handlers.NewApp(sessions, handlers.AppConfig{
		SessionCookie: cfg.SessionCookie,
		SessionTTL:    cfg.SessionTTL,
		AccessLog:     true,
	}, log)
}

// newStore opens the key-value store selected by STORE_DRIVER. The returned
// func releases it.
func newStore(cfg config.Config) (repositories.KeyValueStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite, config.StorePostgres:
		db, err := repositories.OpenDatabase(cfg.StoreDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.AutoMigrate(&models.StorageEntry{}); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate client storage: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repositories.NewGORMKeyValueStore(db), closeDB, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return repositories.NewRedisKeyValueStore(client, cfg.SessionTTL), func() { client.Close() }, nil
	default:
		return repositories.NewMemoryKeyValueStore(), func() {}, nil
	}
}
