package handler

import (
	"beeja-hrm-backend/internal/middleware"
	"beeja-hrm-backend/internal/model"
	"beeja-hrm-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ConnectionHandler struct {
	connSvc *service.ConnectionService
}

func NewConnectionHandler(connSvc *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connSvc: connSvc}
}

// Create files a connection request toward a higher-privilege recipient.
// POST /api/v1/connections/:recipientId
func (h *ConnectionHandler) Create(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	recipientID := c.Params("recipientId")

	var req model.CreateConnectionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body", "code": "validation_error"})
	}

	created, err := h.connSvc.Create(c.Context(), caller, recipientID, req.Message)
	if err != nil {
		return serviceError(c, "Connection", err)
	}
	return c.Status(201).JSON(fiber.Map{"request": created})
}

// ListPending returns the caller's pending requests (elevated roles only).
// GET /api/v1/connections?status=pending
func (h *ConnectionHandler) ListPending(c *fiber.Ctx) error {
	caller := middleware.Identity(c)

	if status := c.Query("status", "pending"); status != "pending" {
		return c.Status(400).JSON(fiber.Map{"error": "only status=pending is supported", "code": "validation_error"})
	}

	reqs, err := h.connSvc.ListPending(c.Context(), caller)
	if err != nil {
		return serviceError(c, "Connection", err)
	}
	if reqs == nil {
		reqs = []*model.ConnectionRequest{}
	}
	return c.JSON(fiber.Map{"requests": reqs})
}

// Respond approves or rejects a pending request.
// PATCH /api/v1/connections/:id
func (h *ConnectionHandler) Respond(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	requestID := c.Params("id")

	var req model.RespondConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body", "code": "validation_error"})
	}

	resolved, err := h.connSvc.Respond(c.Context(), caller, requestID, req.Action, req.Message)
	if err != nil {
		return serviceError(c, "Connection", err)
	}
	return c.JSON(fiber.Map{"request": resolved})
}
