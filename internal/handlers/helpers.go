package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prayershare/backend/internal/middleware"
	"github.com/prayershare/backend/internal/services"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.RequestIDLocal).(string); ok {
		return id
	}
	return ""
}

func windowFrom(p utils.PaginationParams) services.Window {
	return services.Window{Limit: p.Limit, Offset: p.Offset}
}

// respondServiceError maps service sentinels onto the response envelope.
// resource names the entity in 404/403 messages; failure is the message
// used for unexpected errors.
func respondServiceError(c *fiber.Ctx, err error, resource, failure string) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return utils.Error(c, fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "))
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, resource+" not found")
	case errors.Is(err, services.ErrForbidden):
		return utils.Error(c, fiber.StatusForbidden, resource+" access denied")
	case errors.Is(err, services.ErrAlreadyResolved):
		return utils.Error(c, fiber.StatusConflict, "request already resolved")
	case errors.Is(err, services.ErrUserNotFound):
		return utils.Recoverable(c, fiber.StatusUnprocessableEntity, "username does not exist")
	case errors.Is(err, services.ErrConflict):
		return utils.Error(c, fiber.StatusConflict, strings.TrimPrefix(err.Error(), services.ErrConflict.Error()+": "))
	}

	details := map[string]interface{}{
		"path":       c.Path(),
		"request_id": getRequestID(c),
	}
	if user := middleware.GetCurrentUser(c); user != nil {
		logger.ErrorWithUser(user.ID.String(), "service_error", err, details)
	} else {
		logger.Error("service_error", err, details)
	}
	return utils.Error(c, fiber.StatusInternalServerError, failure)
}
