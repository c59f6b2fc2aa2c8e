package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// writeError maps err to its status and body. Client errors show their
// detail; server errors are logged and replaced with a generic message.
func writeError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	message := err.Error()
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed",
			"request_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"action", string(kind),
			"error", err.Error(),
		)
		message = kind.PublicMessage()
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: message, Kind: string(kind)})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: message, Kind: string(apperr.KindValidation),
	})
}

// requestID returns the id set by the requestid middleware, if it ran.
func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
