package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"beeja-hrm-backend/internal/middleware"
	"beeja-hrm-backend/internal/model"
	"beeja-hrm-backend/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WSHandler struct {
	hub       *service.WSHub
	sessions  service.ChatStore
	jwtSecret string
}

func NewWSHandler(hub *service.WSHub, sessions service.ChatStore, jwtSecret string) *WSHandler {
	return &WSHandler{hub: hub, sessions: sessions, jwtSecret: jwtSecret}
}

// Upgrade validates the externally issued token from the query string and
// hands the connection to the hub.
// GET /ws?token=
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		token := c.Query("token")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "token required"})
		}

		identity, err := middleware.ParseIdentityToken(h.jwtSecret, token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals("user_id", identity.UserID)
		c.Locals("role", identity.Role)
		return websocket.New(h.handleConnection)(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *WSHandler) handleConnection(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(model.Role)

	client := &service.WSClient{
		Conn:   c,
		UserID: userID,
		Role:   role,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	// Writer goroutine
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	// Reader loop
	c.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		// Reset deadline on any message
		c.SetReadDeadline(time.Now().Add(60 * time.Second))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}

		switch event.Type {
		case model.EventPing:
			pong, _ := json.Marshal(model.WSEvent{Type: model.EventPong})
			select {
			case client.Send <- pong:
			default:
			}

		case model.EventSubscribe:
			var sub model.SubscribePayload
			if err := json.Unmarshal(event.Data, &sub); err != nil {
				continue
			}
			if h.mayJoin(sub.SessionID, userID) {
				h.hub.JoinRoom(client, sub.SessionID)
			}

		case model.EventUnsubscribe:
			var sub model.SubscribePayload
			if err := json.Unmarshal(event.Data, &sub); err != nil {
				continue
			}
			h.hub.LeaveRoom(client, sub.SessionID)

		default:
			log.Printf("[WS] unknown frame type %q from %s", event.Type, userID)
		}
	}
}

// mayJoin checks that the user is a participant of the session before
// subscribing the connection to its room.
func (h *WSHandler) mayJoin(sessionID, userID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := h.sessions.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return false
	}
	return session.HasParticipant(userID)
}
