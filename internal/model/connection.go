package model

import "time"

// ConnectionRequestStatus is the request lifecycle state. Approved and
// rejected are terminal.
type ConnectionRequestStatus string

const (
	ConnectionPending  ConnectionRequestStatus = "pending"
	ConnectionApproved ConnectionRequestStatus = "approved"
	ConnectionRejected ConnectionRequestStatus = "rejected"
)

// MaxConnectionMessageLen caps the optional note on a connection request.
const MaxConnectionMessageLen = 500

// ConnectionRequest gates session creation between role pairs that the
// policy routes through approval. At most one pending request may exist
// per unordered pair.
type ConnectionRequest struct {
	ID              string                  `json:"id"`
	RequesterID     string                  `json:"requester_id"`
	RecipientID     string                  `json:"recipient_id"`
	Message         string                  `json:"message,omitempty"`
	Status          ConnectionRequestStatus `json:"status"`
	CreatedAt       time.Time               `json:"created_at"`
	RespondedAt     *time.Time              `json:"responded_at,omitempty"`
	ResponseMessage string                  `json:"response_message,omitempty"`
}

// CreateConnectionRequest is the payload for POST /connections/:recipientId.
type CreateConnectionRequest struct {
	Message string `json:"message,omitempty"`
}

// RespondConnectionRequest is the payload for PATCH /connections/:id.
type RespondConnectionRequest struct {
	Action  string `json:"action"` // "approve" or "reject"
	Message string `json:"message,omitempty"`
}
