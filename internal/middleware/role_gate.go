package middleware

import (
	"errors"
	"time"

	"foodfront/internal/models"
	"foodfront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Redirect targets of denied views.
const (
	LoginPath = "/login"
	HomePath  = "/restaurants"
)

// SessionHeader may carry the session ID when cookies are unavailable.
const SessionHeader = "X-Session-ID"

const sessionLocal = "session"

// Decision is the outcome of a gate check.
type Decision struct {
	Allow          bool
	RedirectTarget string
}

// Gate permits a view only to authenticated users whose role is in allowed.
// An empty allowed set admits any authenticated user.
func Gate(isAuthenticated bool, role models.Role, allowed []models.Role) Decision {
	if !isAuthenticated {
		return Decision{RedirectTarget: LoginPath}
	}
	if len(allowed) == 0 {
		return Decision{Allow: true}
	}
	for _, r := range allowed {
		if r == role {
			return Decision{Allow: true}
		}
	}
	return Decision{RedirectTarget: HomePath}
}

// SessionLoader attaches the caller's session. A request carrying none or an
// unknown ID gets a new guest session, except GET and HEAD requests, which
// are served from a throwaway guest session without issuing a cookie.
func SessionLoader(sessions *services.Sessions, cookieName string, ttl time.Duration, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		id := c.Cookies(cookieName)
		if id == "" {
			id = c.Get(SessionHeader)
		}

		s, err := sessions.Get(ctx, id)
		if errors.Is(err, services.ErrSessionNotFound) {
			if readOnly(c) {
				c.Locals(sessionLocal, sessions.Guest(ctx))
				return c.Next()
			}
			s, err = sessions.New(ctx)
			if err == nil {
				SetSessionCookie(c, cookieName, s.ID, ttl)
			}
		}
		if err != nil {
			logger.Error("failed to load session", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not load session",
				"error":   err.Error(),
			})
		}

		c.Locals(sessionLocal, s)
		c.Set(SessionHeader, s.ID)
		return c.Next()
	}
}

func readOnly(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead
}

// SetSessionCookie issues the session cookie.
func SetSessionCookie(c *fiber.Ctx, name, id string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

// CurrentSession returns the session attached by SessionLoader.
func CurrentSession(c *fiber.Ctx) *services.Session {
	s, _ := c.Locals(sessionLocal).(*services.Session)
	return s
}

// RoleRequired applies Gate to the current session. Denied requests get a
// 303 See Other to the gate's redirect target.
func RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			user *models.User
			role models.Role
		)
		if s := CurrentSession(c); s != nil {
			user, _ = s.CurrentUser(c.UserContext())
		}
		if user != nil {
			role = user.Role
		}

		d := Gate(user != nil, role, roles)
		if d.Allow {
			return c.Next()
		}
		message := "Authentication required"
		if user != nil {
			message = "Your role cannot access this page"
		}
		c.Location(d.RedirectTarget)
		return c.Status(fiber.StatusSeeOther).JSON(fiber.Map{
			"message":  message,
			"redirect": d.RedirectTarget,
		})
	}
}
