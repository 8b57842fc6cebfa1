package service

import (
	"context"
	"log"
	"strings"
	"time"

	"beeja-hrm-backend/internal/model"
	"beeja-hrm-backend/internal/policy"

	"github.com/google/uuid"
)

// ConnectionService runs the connection-request lifecycle:
// pending -> approved | rejected, both terminal. A rejected request does
// not block a fresh one.
type ConnectionService struct {
	requests  RequestStore
	chats     ChatStore
	directory DirectoryStore
	hub       Publisher
}

func NewConnectionService(requests RequestStore, chats ChatStore, directory DirectoryStore, hub Publisher) *ConnectionService {
	return &ConnectionService{requests: requests, chats: chats, directory: directory, hub: hub}
}

// Create files a new pending request toward recipientID. It conflicts if
// the pair already has a pending request or if policy lets the pair chat
// without approval.
func (s *ConnectionService) Create(ctx context.Context, requester model.Identity, recipientID, message string) (*model.ConnectionRequest, error) {
	if recipientID == requester.UserID {
		return nil, &ValidationError{Field: "recipient_id", Reason: "cannot request a connection with yourself"}
	}
	message = strings.TrimSpace(message)
	if len(message) > model.MaxConnectionMessageLen {
		return nil, &ValidationError{Field: "message", Reason: "message too long"}
	}

	recipient, err := s.directory.Get(ctx, recipientID)
	if err != nil {
		return nil, unavailable("directory lookup", err)
	}
	if recipient == nil {
		return nil, ErrNotFound
	}

	if policy.Decide(requester.Role, recipient.Role) == policy.Allowed || requester.Role.Elevated() {
		return nil, ErrConflict
	}

	pending, err := s.requests.FindPendingByPair(ctx, requester.UserID, recipientID)
	if err != nil {
		return nil, unavailable("find pending request", err)
	}
	if pending != nil {
		return nil, ErrConflict
	}

	req := &model.ConnectionRequest{
		ID:          uuid.NewString(),
		RequesterID: requester.UserID,
		RecipientID: recipientID,
		Message:     message,
		Status:      model.ConnectionPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		// The partial unique index catches a concurrent duplicate.
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, unavailable("create request", err)
	}

	s.hub.PublishToUser(recipientID, model.NewConnectionRequestEvent(req))
	return req, nil
}

// Respond approves or rejects a pending request. Only the addressed
// recipient may respond; approval lazily creates the chat session.
func (s *ConnectionService) Respond(ctx context.Context, responder model.Identity, requestID, action, responseMessage string) (*model.ConnectionRequest, error) {
	var status model.ConnectionRequestStatus
	switch action {
	case "approve":
		status = model.ConnectionApproved
	case "reject":
		status = model.ConnectionRejected
	default:
		return nil, &ValidationError{Field: "action", Reason: "must be approve or reject"}
	}
	responseMessage = strings.TrimSpace(responseMessage)
	if len(responseMessage) > model.MaxConnectionMessageLen {
		return nil, &ValidationError{Field: "message", Reason: "message too long"}
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, unavailable("get request", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.RecipientID != responder.UserID {
		return nil, ErrForbidden
	}
	if req.Status != model.ConnectionPending {
		return nil, ErrInvalidState
	}

	resolved, err := s.requests.Resolve(ctx, requestID, status, responseMessage)
	if err != nil {
		return nil, unavailable("resolve request", err)
	}
	if resolved == nil {
		// Raced with another response; the first one won.
		return nil, ErrInvalidState
	}

	if status == model.ConnectionApproved {
		// Session creation failing here is not fatal: the requester's
		// next get-or-create sees the approved request and retries.
		if _, err := s.chats.CreateSession(ctx, resolved.RequesterID, resolved.RecipientID); err != nil {
			log.Printf("[Connection] session create after approval failed for request %s: %v", requestID, err)
		}
	}

	s.hub.PublishToUser(resolved.RequesterID, model.ConnectionRespondedEvent(resolved))
	return resolved, nil
}

// ListPending returns the caller's own pending requests. The listing is
// restricted to elevated roles, which are the only approval recipients.
func (s *ConnectionService) ListPending(ctx context.Context, caller model.Identity) ([]*model.ConnectionRequest, error) {
	if !caller.Role.Elevated() {
		return nil, ErrForbidden
	}
	reqs, err := s.requests.ListPendingForRecipient(ctx, caller.UserID)
	if err != nil {
		return nil, unavailable("list pending", err)
	}
	return reqs, nil
}
