package middleware

import (
	"strings"

	"foodfront/internal/models"
	"foodfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const actorLocal = "actor"

// AuthRequired is a Fiber middleware for the reference backend that checks
// for a valid access token and stores the caller as a services.Actor.
func AuthRequired(authService *services.AuthService, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Authentication credentials were not provided.",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Authorization header must contain two space-delimited values",
			})
		}

		claims, err := authService.ValidateToken(parts[1], services.TokenTypeAccess)
		if err != nil {
			logger.Debug("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
		}
		userID, err := services.ClaimsUserID(claims)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"detail": "Token contained no recognizable user identification",
				"code":   "token_not_valid",
			})
		}
		role, _ := claims["role"].(string)

		c.Locals(actorLocal, services.Actor{ID: userID, Role: models.Role(role)})
		return c.Next()
	}
}

// CurrentActor returns the caller stored by AuthRequired.
func CurrentActor(c *fiber.Ctx) services.Actor {
	actor, _ := c.Locals(actorLocal).(services.Actor)
	return actor
}
