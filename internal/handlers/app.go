package handlers

import (
	"time"

	"foodfront/internal/middleware"
	"foodfront/internal/services"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// AppConfig holds the HTTP-facing settings of the front end.
type AppConfig struct {
	SessionCookie string
	SessionTTL    time.Duration
	// AccessLog enables Fiber's request logger.
	AccessLog bool
}

// NewApp builds the Fiber app. Every front-end route except /health and
// POST /session sits behind the session loader.
func NewApp(sessions *services.Sessions, cfg AppConfig, logger *zap.Logger) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "sid"
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(fiberlogger.New())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	auth := NewAuthHandler(sessions, cfg.SessionCookie, cfg.SessionTTL, logger)
	app.Post("/session", auth.HandleNewSession)

	app.Use(middleware.SessionLoader(sessions, cfg.SessionCookie, cfg.SessionTTL, logger))

	validate := services.NewValidator()
	auth.RegisterRoutes(app)
	NewRestaurantHandler(logger).RegisterRoutes(app)
	NewCartHandler(validate, logger).RegisterRoutes(app)
	NewOrderHandler(logger).RegisterRoutes(app)
	NewOwnerHandler(validate, logger).RegisterRoutes(app)
	NewRiderHandler(logger).RegisterRoutes(app)
	return app
}
