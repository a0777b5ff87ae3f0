package handlers

import (
	"foodfront/internal/middleware"
	"foodfront/internal/models"
	"foodfront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OwnerHandler serves the restaurant owner dashboard.
type OwnerHandler struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewOwnerHandler creates a new OwnerHandler.
func NewOwnerHandler(validate *validator.Validate, logger *zap.Logger) *OwnerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnerHandler{validate: validate, logger: logger}
}

// RegisterRoutes registers the owner routes, gated to RESTAURANT_OWNER.
func (h *OwnerHandler) RegisterRoutes(router fiber.Router) {
	ownerRoutes := router.Group("/owner", middleware.RoleRequired(models.RoleRestaurantOwner))
	ownerRoutes.Get("/dashboard", h.HandleDashboard)
	ownerRoutes.Post("/restaurant", h.HandleCreateRestaurant)
	ownerRoutes.Patch("/restaurant", h.HandleUpdateRestaurant)
	ownerRoutes.Post("/menu", h.HandleCreateMenuItem)
	ownerRoutes.Patch("/menu/:id", h.HandleUpdateMenuItem)
	ownerRoutes.Delete("/menu/:id", h.HandleDeleteMenuItem)
	ownerRoutes.Post("/orders/:id/status", h.HandleUpdateOrderStatus)
}

// HandleDashboard returns the owner's restaurant, menu and orders.
func (h *OwnerHandler) HandleDashboard(c *fiber.Ctx) error {
	dash, err := session(c).LoadOwnerDashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not load dashboard", err)
	}
	return c.JSON(dash)
}

// HandleCreateRestaurant creates the owner's restaurant.
func (h *OwnerHandler) HandleCreateRestaurant(c *fiber.Ctx) error {
	var in models.RestaurantInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := services.ValidateStruct(h.validate, in); err != nil {
		return respondError(c, h.logger, "Validation failed", err)
	}
	r, err := session(c).Restaurants.CreateRestaurant(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, "Could not create restaurant", err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// HandleUpdateRestaurant patches the owner's restaurant.
func (h *OwnerHandler) HandleUpdateRestaurant(c *fiber.Ctx) error {
	var in models.RestaurantInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	ctx := c.UserContext()
	s := session(c)
	mine, err := s.Restaurants.FetchMyRestaurant(ctx)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve restaurant", err)
	}
	if mine == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "You do not have a restaurant yet."})
	}
	r, err := s.Restaurants.UpdateRestaurant(ctx, mine.ID, in)
	if err != nil {
		return respondError(c, h.logger, "Could not update restaurant", err)
	}
	return c.JSON(r)
}

// HandleCreateMenuItem adds an item to the owner's menu.
func (h *OwnerHandler) HandleCreateMenuItem(c *fiber.Ctx) error {
	var in models.MenuItemInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := services.ValidateStruct(h.validate, in); err != nil {
		return respondError(c, h.logger, "Validation failed", err)
	}
	item, err := session(c).Restaurants.CreateMenuItem(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, "Could not create menu item", err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateMenuItem patches a menu item.
func (h *OwnerHandler) HandleUpdateMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid menu item ID", err)
	}
	var in models.MenuItemInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	item, err := session(c).Restaurants.UpdateMenuItem(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.logger, "Could not update menu item", err)
	}
	return c.JSON(item)
}

// HandleDeleteMenuItem removes a menu item.
func (h *OwnerHandler) HandleDeleteMenuItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid menu item ID", err)
	}
	if err := session(c).Restaurants.DeleteMenuItem(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, "Could not delete menu item", err)
	}
	return c.JSON(fiber.Map{"message": "Menu item deleted"})
}

// HandleUpdateOrderStatus moves an incoming order along the kitchen edges.
func (h *OwnerHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	return handleTransition(c, h.logger)
}
