package handlers

import (
	"foodfront/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RestaurantHandler serves public restaurant browsing.
type RestaurantHandler struct {
	logger *zap.Logger
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(logger *zap.Logger) *RestaurantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestaurantHandler{logger: logger}
}

// RegisterRoutes registers the restaurant routes.
func (h *RestaurantHandler) RegisterRoutes(router fiber.Router) {
	restaurantRoutes := router.Group("/restaurants")
	restaurantRoutes.Get("/", h.HandleList)
	restaurantRoutes.Get("/:id", h.HandleGet)
	restaurantRoutes.Get("/:id/menu", h.HandleMenu)
}

// HandleList lists active restaurants, optionally filtered by search and cuisine_type.
func (h *RestaurantHandler) HandleList(c *fiber.Ctx) error {
	list, err := session(c).Restaurants.ListRestaurants(c.UserContext(), models.RestaurantFilter{
		Search:      c.Query("search"),
		CuisineType: c.Query("cuisine_type"),
	})
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve restaurants", err)
	}
	return c.JSON(list)
}

// HandleGet returns one restaurant.
func (h *RestaurantHandler) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid restaurant ID", err)
	}
	r, err := session(c).Restaurants.FetchRestaurant(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve restaurant", err)
	}
	return c.JSON(r)
}

// HandleMenu returns the available menu of a restaurant.
func (h *RestaurantHandler) HandleMenu(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid restaurant ID", err)
	}
	menu, err := session(c).Restaurants.FetchMenu(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve menu", err)
	}
	return c.JSON(menu)
}
