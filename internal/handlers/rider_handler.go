package handlers

import (
	"foodfront/internal/middleware"
	"foodfront/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RiderHandler serves the rider dashboard.
type RiderHandler struct {
	logger *zap.Logger
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(logger *zap.Logger) *RiderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiderHandler{logger: logger}
}

// RegisterRoutes registers the rider routes, gated to RIDER.
func (h *RiderHandler) RegisterRoutes(router fiber.Router) {
	riderRoutes := router.Group("/rider", middleware.RoleRequired(models.RoleRider))
	riderRoutes.Get("/dashboard", h.HandleDashboard)
	riderRoutes.Post("/orders/:id/claim", h.HandleClaim)
	riderRoutes.Post("/orders/:id/status", h.HandleUpdateOrderStatus)
}

// HandleDashboard returns the claimable pool and the rider's deliveries.
func (h *RiderHandler) HandleDashboard(c *fiber.Ctx) error {
	dash, err := session(c).LoadRiderDashboard(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not load dashboard", err)
	}
	return c.JSON(dash)
}

// HandleClaim claims a ready order. Losing a race yields 409 with the
// backend's message.
func (h *RiderHandler) HandleClaim(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid order ID", err)
	}
	order, err := session(c).Orders.AssignRiderToOrder(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "Could not claim order", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order claimed",
		"order":   order,
	})
}

// HandleUpdateOrderStatus moves a claimed order along the delivery edges.
func (h *RiderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	return handleTransition(c, h.logger)
}
