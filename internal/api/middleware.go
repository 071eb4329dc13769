// internal/api/middleware.go
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	apperrors "fiscal-assistant/internal/common/errors"
	"fiscal-assistant/internal/common/logger"
)

// APIKeyMiddleware rejects requests carrying a wrong key. A missing key is accepted,
// and no key is checked when expected is empty.
func APIKeyMiddleware(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if expected == "" {
			return c.Next()
		}
		key := c.Get(HeaderAPIKey)
		if key != "" && key != expected {
			return c.Status(fiber.StatusForbidden).JSON(MessageResponse{
				Message: UnauthorizedMessage,
				Code:    string(apperrors.ErrCodeUnauthorized),
			})
		}
		return c.Next()
	}
}

// ErrorHandler renders errors escaping a handler as a JSON message.
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(MessageResponse{Message: fe.Message})
		}

		code := apperrors.CodeOf(err)
		log.Error("request failed", map[string]interface{}{
			"path":      c.Path(),
			"error":     err.Error(),
			"errorCode": string(code),
		})

		msg := "Internal error"
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			msg = stdErr.Message
		}
		return c.Status(apperrors.HTTPStatus(code)).JSON(MessageResponse{
			Message: msg,
			Code:    string(code),
		})
	}
}
