package model

import "encoding/json"

// WSEvent is the envelope for every frame on the push channel, in both
// directions. Type is one of the Event* constants below; Data carries the
// matching payload struct.
type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Server-to-client event families. The set is closed: publish and
// subscribe sites switch exhaustively on these.
const (
	EventNewMessage                 = "new_message"
	EventMessagesRead               = "messages_read"
	EventUserOnline                 = "user_online"
	EventUserOffline                = "user_offline"
	EventNewConnectionRequest       = "new_connection_request"
	EventConnectionRequestResponded = "connection_request_responded"
	EventPong                       = "pong"
)

// Client-to-server frame types.
const (
	EventPing        = "ping"
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
)

type NewMessagePayload struct {
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
}

type MessagesReadPayload struct {
	SessionID  string   `json:"session_id"`
	ReaderID   string   `json:"reader_id"`
	MessageIDs []string `json:"message_ids"`
	Unread     int      `json:"unread"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type ConnectionRequestPayload struct {
	Request ConnectionRequest `json:"request"`
}

type ConnectionRespondedPayload struct {
	RequestID       string                  `json:"request_id"`
	RecipientID     string                  `json:"recipient_id"`
	Status          ConnectionRequestStatus `json:"status"`
	ResponseMessage string                  `json:"response_message,omitempty"`
}

// SubscribePayload names the room for subscribe/unsubscribe frames.
type SubscribePayload struct {
	SessionID string `json:"session_id"`
}

func newEvent(typ string, payload any) *WSEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		return &WSEvent{Type: typ}
	}
	return &WSEvent{Type: typ, Data: data}
}

func NewMessageEvent(msg *Message) *WSEvent {
	return newEvent(EventNewMessage, NewMessagePayload{SessionID: msg.SessionID, Message: *msg})
}

func MessagesReadEvent(res *MarkReadResult) *WSEvent {
	return newEvent(EventMessagesRead, MessagesReadPayload{
		SessionID:  res.SessionID,
		ReaderID:   res.ReaderID,
		MessageIDs: res.MessageIDs,
		Unread:     res.Unread,
	})
}

func UserOnlineEvent(userID string) *WSEvent {
	return newEvent(EventUserOnline, PresencePayload{UserID: userID})
}

func UserOfflineEvent(userID string) *WSEvent {
	return newEvent(EventUserOffline, PresencePayload{UserID: userID})
}

func NewConnectionRequestEvent(req *ConnectionRequest) *WSEvent {
	return newEvent(EventNewConnectionRequest, ConnectionRequestPayload{Request: *req})
}

func ConnectionRespondedEvent(req *ConnectionRequest) *WSEvent {
	return newEvent(EventConnectionRequestResponded, ConnectionRespondedPayload{
		RequestID:       req.ID,
		RecipientID:     req.RecipientID,
		Status:          req.Status,
		ResponseMessage: req.ResponseMessage,
	})
}
