package server

import (
	"errors"

	"appfeed/internal/middleware"
	"appfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// msgPassValidValues is the original catch-all for an unreadable body.
const msgPassValidValues = "Pass valid values"

// parseBody decodes the JSON body into dst.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(msgPassValidValues))
		return errResponseWritten
	}
	return nil
}

// success writes a 200 with a successMessage.
func success(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"successMessage": message})
}

// list writes items under key, adding emptyMessage when there are none.
// Empty results are always encoded as [] rather than null.
func list[T any](c *fiber.Ctx, key string, items []T, emptyMessage string) error {
	if len(items) == 0 {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{key: []T{}, "successMessage": emptyMessage})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{key: items})
}

// tenant stamps the app id on the request context for logging and tracing.
func tenant(c *fiber.Ctx, appID string) string {
	middleware.WithAppID(c, appID)
	return appID
}
