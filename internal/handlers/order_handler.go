package handlers

import (
	"foodfront/internal/middleware"
	"foodfront/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler serves the customer's checkout and order views.
type OrderHandler struct {
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{logger: logger}
}

// RegisterRoutes registers the customer routes. Every route is gated to CUSTOMER.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	customer := middleware.RoleRequired(models.RoleCustomer)
	router.Post("/checkout", customer, h.HandleCheckout)

	orderRoutes := router.Group("/orders", customer)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Get("/:id/track", h.HandleTrackOrder)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

// CheckoutRequest is the checkout form.
type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
}

// CancelRequest carries the cancellation reason.
type CancelRequest struct {
	CancellationReason string `json:"cancellation_reason"`
}

// HandleCheckout submits the cart as an order. The cart is cleared only when
// the order was placed.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	s := session(c)
	order, err := s.Checkout(c.UserContext(), req.DeliveryAddress)
	if err != nil {
		return respondError(c, h.logger, "Order creation failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order placed successfully",
		"order":   order,
		"cart":    s.Cart.State().Cart(),
	})
}

// HandleGetOrders returns the customer's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := session(c).Orders.FetchMyOrders(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns one order.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID", err)
	}
	order, err := session(c).Orders.FetchOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleTrackOrder returns the tracking summary of an order.
func (h *OrderHandler) HandleTrackOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID", err)
	}
	tracking, err := session(c).Orders.TrackOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "Could not track order", err)
	}
	return c.JSON(tracking)
}

// HandleCancelOrder cancels a pending order.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID", err)
	}
	var req CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	order, err := session(c).CancelOrder(c.UserContext(), id, req.CancellationReason)
	if err != nil {
		return respondError(c, h.logger, "Could not cancel order", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order cancelled",
		"order":   order,
	})
}

// handleTransition applies a status update for owner and rider views.
func handleTransition(c *fiber.Ctx, logger *zap.Logger) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID", err)
	}
	var update models.StatusUpdate
	if err := c.BodyParser(&update); err != nil {
		return badRequest(c, "Invalid request body for status update", err)
	}
	if update.Status == "" {
		return badRequest(c, "Status is required for order status update.", nil)
	}
	order, err := session(c).TransitionOrder(c.UserContext(), id, update.Status, update.CancellationReason)
	if err != nil {
		return respondError(c, logger, "Could not update order status", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated to " + order.Status.Display(),
		"order":   order,
	})
}
