package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"foodfront/internal/api"
	"foodfront/internal/middleware"
	"foodfront/internal/models"
	"foodfront/internal/services"
	"foodfront/internal/state"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// respondError maps err to an HTTP status and a {"message","error"} body.
// Backend messages are passed through verbatim.
func respondError(c *fiber.Ctx, logger *zap.Logger, message string, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	}

	status := fiber.StatusInternalServerError
	body := fiber.Map{"message": message, "error": state.ErrorMessage(err)}

	var apiErr *api.Error
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrReasonRequired):
		status = fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotPermitted):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrNotAuthenticated), errors.Is(err, api.ErrSessionExpired):
		status = fiber.StatusUnauthorized
	case errors.Is(err, state.ErrRequestInFlight):
		status = fiber.StatusConflict
	case errors.As(err, &apiErr):
		status = apiStatus(apiErr)
		if apiErr.Kind == api.KindValidation && json.Valid(apiErr.Payload) {
			body["errors"] = json.RawMessage(apiErr.Payload)
		}
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error(message, zap.String("path", c.Path()), zap.Error(err))
	} else {
		logger.Debug(message, zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

func apiStatus(e *api.Error) int {
	switch e.Kind {
	case api.KindValidation:
		return fiber.StatusBadRequest
	case api.KindUnauthorized:
		return fiber.StatusUnauthorized
	case api.KindForbidden:
		return fiber.StatusForbidden
	case api.KindNotFound:
		return fiber.StatusNotFound
	case api.KindConflict:
		return fiber.StatusConflict
	case api.KindTransport:
		return fiber.StatusServiceUnavailable
	case api.KindServer:
		return fiber.StatusBadGateway
	}
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode
	}
	return fiber.StatusBadGateway
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// session returns the caller's session attached by middleware.SessionLoader.
func session(c *fiber.Ctx) *services.Session {
	return middleware.CurrentSession(c)
}
