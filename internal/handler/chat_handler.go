package handler

import (
	"strconv"

	"beeja-hrm-backend/internal/middleware"
	"beeja-hrm-backend/internal/model"
	"beeja-hrm-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatSvc *service.ChatService
}

func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// ListSessions returns the caller's sessions, newest activity first.
// GET /api/v1/chats
func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	caller := middleware.Identity(c)

	sessions, err := h.chatSvc.ListSessionsForUser(c.Context(), caller.UserID)
	if err != nil {
		return serviceError(c, "Chat", err)
	}
	if sessions == nil {
		sessions = []*model.SessionSummary{}
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// AvailableUsers returns directory entries annotated with chat standing.
// GET /api/v1/chats/available-users?search=
func (h *ChatHandler) AvailableUsers(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	search := c.Query("search")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	users, err := h.chatSvc.AvailableUsers(c.Context(), caller, search, limit)
	if err != nil {
		return serviceError(c, "Chat", err)
	}
	if users == nil {
		users = []*model.AvailableUser{}
	}
	return c.JSON(fiber.Map{"users": users})
}

// OpenSession gets or creates the session with another user.
// POST /api/v1/chats/with/:otherUserId
func (h *ChatHandler) OpenSession(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	otherID := c.Params("otherUserId")

	session, err := h.chatSvc.GetOrCreateSession(c.Context(), caller, otherID)
	if err != nil {
		return serviceError(c, "Chat", err)
	}
	return c.JSON(fiber.Map{"session": session})
}

// ListMessages returns a reverse-chronological page of a session.
// GET /api/v1/chats/:id/messages?page&limit
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	sessionID := c.Params("id")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	msgs, err := h.chatSvc.ListMessages(c.Context(), sessionID, caller, page, limit)
	if err != nil {
		return serviceError(c, "Chat", err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return c.JSON(fiber.Map{"messages": msgs, "page": page})
}

// SendMessage stores a message and fans it out to the session room.
// POST /api/v1/chats/:id/messages
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	sessionID := c.Params("id")

	var req model.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body", "code": "validation_error"})
	}

	msg, err := h.chatSvc.SendMessage(c.Context(), sessionID, caller, &req)
	if err != nil {
		return serviceError(c, "Chat", err)
	}
	return c.Status(201).JSON(fiber.Map{"message": msg})
}

// MarkRead appends read receipts for the caller.
// POST /api/v1/chats/:id/read
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	caller := middleware.Identity(c)
	sessionID := c.Params("id")

	var req model.MarkReadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body", "code": "validation_error"})
	}

	result, err := h.chatSvc.MarkRead(c.Context(), sessionID, caller, req.MessageIDs)
	if err != nil {
		return serviceError(c, "Chat", err)
	}
	return c.JSON(fiber.Map{"result": result})
}
