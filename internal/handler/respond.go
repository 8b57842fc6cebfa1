package handler

import (
	"errors"
	"log"

	"beeja-hrm-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps the service error taxonomy onto HTTP. Every branch
// carries a machine-readable code so clients can switch on it instead of
// parsing message strings.
func serviceError(c *fiber.Ctx, tag string, err error) error {
	var needsReq *service.NeedsConnectionRequestError
	var validation *service.ValidationError

	switch {
	case errors.As(err, &needsReq):
		return c.Status(403).JSON(fiber.Map{
			"error":          needsReq.Error(),
			"code":           "needs_connection_request",
			"recipient_id":   needsReq.RecipientID,
			"recipient_role": needsReq.RecipientRole,
		})
	case errors.As(err, &validation):
		return c.Status(400).JSON(fiber.Map{
			"error": validation.Error(),
			"code":  "validation_error",
			"field": validation.Field,
		})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "forbidden", "code": "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not found", "code": "not_found"})
	case errors.Is(err, service.ErrConflict):
		return c.Status(409).JSON(fiber.Map{"error": "conflict", "code": "conflict"})
	case errors.Is(err, service.ErrInvalidState):
		return c.Status(409).JSON(fiber.Map{"error": "request already resolved", "code": "invalid_state"})
	default:
		log.Printf("[%s] storage error: %v", tag, err)
		return c.Status(503).JSON(fiber.Map{"error": "temporarily unavailable", "code": "unavailable"})
	}
}
