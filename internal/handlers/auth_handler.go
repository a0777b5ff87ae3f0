package handlers

import (
	"time"

	"foodfront/internal/middleware"
	"foodfront/internal/models"
	"foodfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles session, login and profile requests.
type AuthHandler struct {
	sessions   *services.Sessions
	cookieName string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *services.Sessions, cookieName string, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, cookieName: cookieName, ttl: ttl, logger: logger}
}

// RegisterRoutes registers the authentication and profile routes.
// HandleNewSession is mounted separately, ahead of the session loader.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)

	signedIn := middleware.RoleRequired()
	router.Get("/profile", signedIn, h.HandleProfile)
	router.Patch("/profile", signedIn, h.HandleUpdateProfile)
	router.Post("/profile/password", signedIn, h.HandleChangePassword)
}

// HandleNewSession allocates a fresh guest session.
func (h *AuthHandler) HandleNewSession(c *fiber.Ctx) error {
	s, err := h.sessions.New(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not create session", err)
	}
	middleware.SetSessionCookie(c, h.cookieName, s.ID, h.ttl)
	c.Set(middleware.SessionHeader, s.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": s.ID,
		"cart":       s.Cart.State().Cart(),
	})
}

// HandleRegister creates an account and logs the session in.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var in models.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	s := session(c)
	user, err := s.Register(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, "Registration failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
		"cart":    s.Cart.State().Cart(),
	})
}

// HandleLogin authenticates the session and switches to the user's cart.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var in models.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	s := session(c)
	user, err := s.Login(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, "Authentication failed", err)
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"cart":    s.Cart.State().Cart(),
	})
}

// HandleLogout drops the tokens and returns to the guest cart.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	s := session(c)
	if err := s.Logout(c.UserContext()); err != nil {
		return respondError(c, h.logger, "Could not log out", err)
	}
	return c.JSON(fiber.Map{
		"message": "Logged out",
		"cart":    s.Cart.State().Cart(),
	})
}

// HandleProfile returns the current user's profile.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	user, err := session(c).Profile(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, "Could not retrieve profile", err)
	}
	return c.JSON(user)
}

// HandleUpdateProfile patches the editable profile fields.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var patch models.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	user, err := session(c).UpdateProfile(c.UserContext(), patch)
	if err != nil {
		return respondError(c, h.logger, "Could not update profile", err)
	}
	return c.JSON(user)
}

// HandleChangePassword changes the account password.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var in models.PasswordChange
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := session(c).ChangePassword(c.UserContext(), in); err != nil {
		return respondError(c, h.logger, "Could not change password", err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}
