package service

import (
	"encoding/json"
	"log"
	"sync"

	"beeja-hrm-backend/internal/model"

	"github.com/gofiber/contrib/websocket"
)

// WSClient is one live websocket connection. A user with several open
// tabs has several clients; presence reference-counts them.
type WSClient struct {
	Conn   *websocket.Conn
	UserID string
	Role   model.Role
	Send   chan []byte

	rooms map[string]bool // guarded by hub.mu
}

// WSHub is the realtime broker: it owns the connection set, a per-user
// index for direct events, and per-session rooms that connections join
// while the matching conversation is open on screen. Delivery is
// best-effort — a client whose send buffer is full loses the event and
// resyncs over HTTP.
type WSHub struct {
	clients    map[*WSClient]bool
	byUser     map[string]map[*WSClient]bool
	rooms      map[string]map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	presence   *PresenceTracker
	mu         sync.RWMutex
	done       chan struct{}
}

func NewWSHub(presence *PresenceTracker) *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		byUser:     make(map[string]map[*WSClient]bool),
		rooms:      make(map[string]map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		presence:   presence,
		done:       make(chan struct{}),
	}
}

func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-h.done:
			return
		}
	}
}

func (h *WSHub) Shutdown() {
	close(h.done)
}

func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

func (h *WSHub) addClient(client *WSClient) {
	client.rooms = make(map[string]bool)

	h.mu.Lock()
	h.clients[client] = true
	if h.byUser[client.UserID] == nil {
		h.byUser[client.UserID] = make(map[*WSClient]bool)
	}
	h.byUser[client.UserID][client] = true
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[WS] %s connected (total: %d)", client.UserID, total)

	if h.presence.Connect(client.UserID) {
		h.broadcastAll(presenceEvent(client.UserID, true))
	}
}

func (h *WSHub) removeClient(client *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if conns := h.byUser[client.UserID]; conns != nil {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	for sessionID := range client.rooms {
		if room := h.rooms[sessionID]; room != nil {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, sessionID)
			}
		}
	}
	close(client.Send)
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[WS] %s disconnected (total: %d)", client.UserID, total)

	if h.presence.Disconnect(client.UserID) {
		h.broadcastAll(presenceEvent(client.UserID, false))
	}
}

// JoinRoom subscribes the connection to a session's room.
func (h *WSHub) JoinRoom(client *WSClient, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	if h.rooms[sessionID] == nil {
		h.rooms[sessionID] = make(map[*WSClient]bool)
	}
	h.rooms[sessionID][client] = true
	client.rooms[sessionID] = true
}

func (h *WSHub) LeaveRoom(client *WSClient, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.rooms[sessionID]; room != nil {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, sessionID)
		}
	}
	delete(client.rooms, sessionID)
}

// PublishToSession delivers an event once to every connection that is
// either subscribed to the session's room or belongs to one of the
// participants. Participant delivery lets the shortcut overlay learn of
// activity in conversations it has not opened.
func (h *WSHub) PublishToSession(sessionID string, participants []string, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*WSClient]bool)
	for client := range h.rooms[sessionID] {
		seen[client] = true
		trySend(client, data)
	}
	for _, userID := range participants {
		for client := range h.byUser[userID] {
			if seen[client] {
				continue
			}
			seen[client] = true
			trySend(client, data)
		}
	}
}

// PublishToUser delivers an event to every live connection of one user.
func (h *WSHub) PublishToUser(userID string, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.byUser[userID] {
		trySend(client, data)
	}
}

// broadcastAll fans an event out to every connection (presence events).
func (h *WSHub) broadcastAll(event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		trySend(client, data)
	}
}

// trySend drops the frame if the client's buffer is full. The client
// discovers the update on its next fetch.
func trySend(client *WSClient, data []byte) {
	select {
	case client.Send <- data:
	default:
	}
}
