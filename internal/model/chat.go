package model

import "time"

// ChatSession is a two-party conversation, unique per unordered
// participant pair. Participants are stored normalized (A < B) so the
// pair maps to exactly one row.
type ChatSession struct {
	ID                 string    `json:"id"`
	ParticipantA       string    `json:"participant_a"`
	ParticipantB       string    `json:"participant_b"`
	LastSeq            int64     `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	LastActivity       time.Time `json:"last_activity"`
	LastMessageID      string    `json:"last_message_id,omitempty"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	LastMessageSender  string    `json:"last_message_sender,omitempty"`
	UnreadA            int       `json:"-"`
	UnreadB            int       `json:"-"`
}

// HasParticipant reports whether userID is one of the two parties.
func (s *ChatSession) HasParticipant(userID string) bool {
	return s.ParticipantA == userID || s.ParticipantB == userID
}

// OtherParticipant returns the counterpart of userID, or "" if userID is
// not a participant.
func (s *ChatSession) OtherParticipant(userID string) string {
	switch userID {
	case s.ParticipantA:
		return s.ParticipantB
	case s.ParticipantB:
		return s.ParticipantA
	}
	return ""
}

// UnreadFor returns the stored unread counter for the given participant.
func (s *ChatSession) UnreadFor(userID string) int {
	if userID == s.ParticipantA {
		return s.UnreadA
	}
	return s.UnreadB
}

// NormalizePair orders a participant pair so (a,b) and (b,a) address the
// same session or connection-request row.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Attachment is a reference to a file held by the external storage
// service; the chat subsystem stores metadata only.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// ReadReceipt marks a message read by one user.
type ReadReceipt struct {
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// Message is immutable once stored except for append-only growth of
// ReadBy. Seq is the per-session append sequence; storage and delivery
// order follow it.
type Message struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	Seq         int64         `json:"seq"`
	SenderID    string        `json:"sender_id"`
	Content     string        `json:"content"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	ReadBy      []ReadReceipt `json:"read_by,omitempty"`
}

// SessionSummary is one entry of a user's session list: the session
// annotated with the other participant and the caller's unread count.
type SessionSummary struct {
	SessionID          string    `json:"session_id"`
	Other              Employee  `json:"other"`
	OtherOnline        bool      `json:"other_online"`
	LastActivity       time.Time `json:"last_activity"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	LastMessageSender  string    `json:"last_message_sender,omitempty"`
	Unread             int       `json:"unread"`
}

// SendMessageRequest is the payload for POST /chats/:id/messages.
type SendMessageRequest struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// MarkReadRequest is the payload for POST /chats/:id/read.
type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}

// MarkReadResult reports which messages were newly marked and the
// caller's recomputed unread count.
type MarkReadResult struct {
	SessionID  string    `json:"session_id"`
	ReaderID   string    `json:"reader_id"`
	MessageIDs []string  `json:"message_ids"`
	ReadAt     time.Time `json:"read_at"`
	Unread     int       `json:"unread"`
}
