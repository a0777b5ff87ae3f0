// Command devbackend serves the reference REST backend for local development.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"foodfront/internal/config"
	"foodfront/internal/devserver"
	"foodfront/internal/repositories"
	"foodfront/internal/services"
	"foodfront/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(viper.New())
	if err != nil {
		panic(err)
	}
	log, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := repositories.OpenDatabase(cfg.BackendDBDriver, cfg.BackendDatabaseDSN)
	if err != nil {
		log.Fatal("failed to open backend database", zap.Error(err))
	}

	// --- Order events ---
	var events services.OrderEventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		events = mqClient

		err = mqClient.ConsumeOrderEvents(func(ev rabbitmq.OrderEvent) error {
			log.Info("order event received",
				zap.String("type", ev.Type), zap.Int64("order_id", ev.OrderID), zap.String("status", ev.Status))
			return nil
		})
		if err != nil {
			log.Warn("failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		log.Info("RABBITMQ_URL not set, order events are not published")
	}

	srv, err := devserver.New(db, devserver.Config{JWTSecret: cfg.JWTSecret}, events, log)
	if err != nil {
		log.Fatal("failed to initialize backend", zap.Error(err))
	}
	if cfg.BackendSeed {
		if err := devserver.Seed(context.Background(), srv); err != nil {
			log.Fatal("failed to seed backend", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(logger.New())
	srv.RegisterRoutes(app.Group("/api"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting reference backend", zap.String("port", cfg.BackendPort))
		if err := app.Listen(cfg.BackendPort); err != nil {
			log.Fatal("backend failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down backend")
	if err := app.Shutdown(); err != nil {
		log.Warn("error during shutdown", zap.Error(err))
	}
}
