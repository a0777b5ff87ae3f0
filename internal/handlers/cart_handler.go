package handlers

import (
	"errors"

	"foodfront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CartHandler exposes the session cart. The cart works for guests too.
type CartHandler struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(validate *validator.Validate, logger *zap.Logger) *CartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartHandler{validate: validate, logger: logger}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGet)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:menuItemId", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items/:menuItemId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClear)
}

// AddItemRequest selects a menu item of a restaurant.
type AddItemRequest struct {
	Restaurant int64 `json:"restaurant" validate:"required"`
	MenuItem   int64 `json:"menu_item" validate:"required"`
}

// QuantityRequest sets the quantity of a cart line.
type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

// HandleGet returns the cart.
func (h *CartHandler) HandleGet(c *fiber.Ctx) error {
	return c.JSON(session(c).Cart.State().Cart())
}

// HandleAddItem adds one unit of a menu item. Adding from another restaurant
// replaces the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := services.ValidateStruct(h.validate, req); err != nil {
		return respondError(c, h.logger, "Validation failed", err)
	}

	cart, err := session(c).AddToCart(c.UserContext(), req.Restaurant, req.MenuItem)
	switch {
	case errors.Is(err, services.ErrMenuItemUnavailable):
		return badRequest(c, "Menu item is currently unavailable", err)
	case errors.Is(err, services.ErrMenuItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Menu item not found on this restaurant's menu",
		})
	case err != nil:
		return respondError(c, h.logger, "Could not add item to cart", err)
	}
	return c.JSON(cart.Cart())
}

// HandleUpdateQuantity sets the quantity of a line. Quantities below one are ignored.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	id, err := paramID(c, "menuItemId")
	if err != nil {
		return badRequest(c, "Invalid menu item ID", err)
	}
	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	s := session(c)
	return c.JSON(s.Cart.UpdateQuantity(c.UserContext(), id, req.Quantity).Cart())
}

// HandleRemoveItem removes a line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	id, err := paramID(c, "menuItemId")
	if err != nil {
		return badRequest(c, "Invalid menu item ID", err)
	}
	s := session(c)
	return c.JSON(s.Cart.RemoveItem(c.UserContext(), id).Cart())
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	s := session(c)
	return c.JSON(s.Cart.Clear(c.UserContext()).Cart())
}
