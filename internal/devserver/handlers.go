package devserver

import (
	"foodfront/internal/api"
	"foodfront/internal/middleware"
	"foodfront/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var in models.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	user, tokens, err := s.auth.Register(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(api.AuthResponse{
		Message:    "User registered successfully",
		User:       *user,
		AuthTokens: tokens,
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var in models.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	user, tokens, err := s.auth.Login(c.UserContext(), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(api.AuthResponse{
		Message:    "Login successful",
		User:       *user,
		AuthTokens: tokens,
	})
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	if in.Refresh == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"refresh": []string{"This field is required."}})
	}
	access, err := s.auth.Refresh(c.UserContext(), in.Refresh)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"access": access})
}

func (s *Server) handleProfile(c *fiber.Ctx) error {
	user, err := s.auth.Profile(c.UserContext(), middleware.CurrentActor(c).ID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var patch models.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(c, err)
	}
	user, err := s.auth.UpdateProfile(c.UserContext(), middleware.CurrentActor(c).ID, patch)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleChangePassword(c *fiber.Ctx) error {
	var in models.PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	if err := s.auth.ChangePassword(c.UserContext(), middleware.CurrentActor(c).ID, in); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

func (s *Server) handleListRestaurants(c *fiber.Ctx) error {
	list, err := s.restaurants.List(c.UserContext(), models.RestaurantFilter{
		Search:      c.Query("search"),
		CuisineType: c.Query("cuisine_type"),
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(list)
}

func (s *Server) handleGetRestaurant(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	r, err := s.restaurants.Get(c.UserContext(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(r)
}

func (s *Server) handleRestaurantMenu(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	menu, err := s.restaurants.Menu(c.UserContext(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(menu)
}

func (s *Server) handleMyRestaurant(c *fiber.Ctx) error {
	r, err := s.restaurants.MyRestaurant(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(r)
}

func (s *Server) handleCreateRestaurant(c *fiber.Ctx) error {
	var in models.RestaurantInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	r, err := s.restaurants.CreateRestaurant(c.UserContext(), middleware.CurrentActor(c), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (s *Server) handleUpdateRestaurant(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	var in models.RestaurantInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	r, err := s.restaurants.UpdateRestaurant(c.UserContext(), middleware.CurrentActor(c), id, in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(r)
}

func (s *Server) handleMyMenu(c *fiber.Ctx) error {
	menu, err := s.restaurants.MyMenu(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(menu)
}

func (s *Server) handleCreateMenuItem(c *fiber.Ctx) error {
	var in models.MenuItemInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	item, err := s.restaurants.CreateMenuItem(c.UserContext(), middleware.CurrentActor(c), in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (s *Server) handleUpdateMenuItem(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	var in models.MenuItemInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	item, err := s.restaurants.UpdateMenuItem(c.UserContext(), middleware.CurrentActor(c), id, in)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(item)
}

func (s *Server) handleDeleteMenuItem(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	if err := s.restaurants.DeleteMenuItem(c.UserContext(), middleware.CurrentActor(c), id); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListOrders(c *fiber.Ctx) error {
	orders, err := s.orders.ListOrders(c.UserContext(), middleware.CurrentActor(c), orderFilter(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(orders)
}

func (s *Server) handleCreateOrder(c *fiber.Ctx) error {
	var in models.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c, err)
	}
	order, err := s.orders.CreateOrder(c.UserContext(), middleware.CurrentActor(c), in, c.Get(api.IdempotencyHeader))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (s *Server) handleMyOrders(c *fiber.Ctx) error {
	orders, err := s.orders.MyOrders(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(orders)
}

func (s *Server) handlePendingOrders(c *fiber.Ctx) error {
	orders, err := s.orders.PendingOrders(c.UserContext(), middleware.CurrentActor(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(orders)
}

func (s *Server) handleGetOrder(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	order, err := s.orders.GetOrder(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(order)
}

func (s *Server) handleTrackOrder(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	tracking, err := s.orders.TrackOrder(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(tracking)
}

func (s *Server) handleUpdateStatus(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	var update models.StatusUpdate
	if err := c.BodyParser(&update); err != nil {
		return badBody(c, err)
	}
	order, err := s.orders.UpdateStatus(c.UserContext(), middleware.CurrentActor(c), id, update)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(order)
}

func (s *Server) handleAssignRider(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return notFound(c)
	}
	order, err := s.orders.AssignRider(c.UserContext(), middleware.CurrentActor(c), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(order)
}
