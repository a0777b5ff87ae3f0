// Package devserver is a self-contained implementation of the REST backend
// the front end consumes. It backs local development and the end-to-end tests.
package devserver

import (
	"errors"
	"strconv"

	"foodfront/internal/middleware"
	"foodfront/internal/models"
	"foodfront/internal/repositories"
	"foodfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config holds the reference backend settings.
type Config struct {
	JWTSecret string
}

// Server bundles the backend services behind the REST routes.
type Server struct {
	auth        *services.AuthService
	restaurants *services.RestaurantService
	orders      *services.OrderService
	logger      *zap.Logger
}

// New migrates db and builds the backend. events may be nil.
func New(db *gorm.DB, cfg Config, events services.OrderEventPublisher, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := repositories.MigrateBackend(db); err != nil {
		return nil, err
	}
	users := repositories.NewGORMUserRepository(db)
	restaurants := repositories.NewGORMRestaurantRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	return &Server{
		auth:        services.NewAuthService(users, cfg.JWTSecret, logger),
		restaurants: services.NewRestaurantService(restaurants),
		orders:      services.NewOrderService(orders, restaurants, users, events, logger),
		logger:      logger,
	}, nil
}

// Auth exposes the account service, e.g. for seeding.
func (s *Server) Auth() *services.AuthService { return s.auth }

// Restaurants exposes the restaurant service, e.g. for seeding.
func (s *Server) Restaurants() *services.RestaurantService { return s.restaurants }

// App returns a Fiber app serving the REST surface under /api.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	s.RegisterRoutes(app.Group("/api"))
	return app
}

// RegisterRoutes registers every backend route on router.
func (s *Server) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(s.auth, s.logger)

	users := router.Group("/users")
	users.Post("/auth/register/", s.handleRegister)
	users.Post("/auth/login/", s.handleLogin)
	users.Post("/auth/token/refresh/", s.handleRefresh)
	users.Get("/profile/", auth, s.handleProfile)
	users.Patch("/profile/", auth, s.handleUpdateProfile)
	users.Put("/profile/", auth, s.handleUpdateProfile)
	users.Post("/change-password/", auth, s.handleChangePassword)

	restaurants := router.Group("/restaurants")
	restaurants.Get("/", s.handleListRestaurants)
	restaurants.Post("/", auth, s.handleCreateRestaurant)
	restaurants.Get("/my_restaurant/", auth, s.handleMyRestaurant)
	restaurants.Get("/:id/", s.handleGetRestaurant)
	restaurants.Get("/:id/menu/", s.handleRestaurantMenu)
	restaurants.Patch("/:id/", auth, s.handleUpdateRestaurant)
	restaurants.Put("/:id/", auth, s.handleUpdateRestaurant)

	menu := router.Group("/menu-items", auth)
	menu.Get("/my_menu/", s.handleMyMenu)
	menu.Post("/", s.handleCreateMenuItem)
	menu.Patch("/:id/", s.handleUpdateMenuItem)
	menu.Put("/:id/", s.handleUpdateMenuItem)
	menu.Delete("/:id/", s.handleDeleteMenuItem)

	orders := router.Group("/orders", auth)
	orders.Get("/", s.handleListOrders)
	orders.Post("/", s.handleCreateOrder)
	orders.Get("/my_orders/", s.handleMyOrders)
	orders.Get("/pending_orders/", s.handlePendingOrders)
	orders.Get("/:id/", s.handleGetOrder)
	orders.Get("/:id/track/", s.handleTrackOrder)
	orders.Post("/:id/update_status/", s.handleUpdateStatus)
	orders.Post("/:id/assign_rider/", s.handleAssignRider)
}

// writeError renders err with the payload shapes the front end parses.
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	var detail *services.DetailError
	switch {
	case errors.As(err, &verr):
		body := make(fiber.Map, len(verr.Fields))
		for field, msg := range verr.Fields {
			body[field] = []string{msg}
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, services.ErrAlreadyAssigned):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Order already assigned to another rider."})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Invalid email or password."})
	case errors.Is(err, services.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Token is invalid or expired", "code": "token_not_valid"})
	case errors.As(err, &detail) && errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": detail.Detail})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": "You do not have permission to perform this action."})
	case errors.As(err, &detail) && errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": detail.Detail})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
	}
	s.logger.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "A server error occurred."})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "JSON parse error - " + err.Error()})
}

func pathID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
}

func orderFilter(c *fiber.Ctx) models.OrderFilter {
	var f models.OrderFilter
	if v, err := strconv.ParseInt(c.Query("restaurant"), 10, 64); err == nil {
		f.Restaurant = v
	}
	f.Status = models.OrderStatus(c.Query("status"))
	return f
}
