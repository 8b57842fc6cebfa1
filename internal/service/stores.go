package service

import (
	"context"

	"beeja-hrm-backend/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories in
// internal/repository implement them; tests use in-memory fakes.
// Lookups return (nil, nil) when the row is absent.

type ChatStore interface {
	GetSession(ctx context.Context, id string) (*model.ChatSession, error)
	FindSessionByPair(ctx context.Context, userA, userB string) (*model.ChatSession, error)
	// CreateSession is an idempotent upsert on the normalized pair: under
	// a concurrent first creation exactly one row exists and both callers
	// get it back.
	CreateSession(ctx context.Context, userA, userB string) (*model.ChatSession, error)
	ListSessions(ctx context.Context, userID string) ([]*model.SessionSummary, error)
	// AppendMessage allocates the next per-session seq, stores the
	// message, bumps the other participant's unread counter and the
	// last-message summary, all in one transaction.
	AppendMessage(ctx context.Context, sessionID, senderID, content string, attachments []model.Attachment) (*model.Message, error)
	ListMessages(ctx context.Context, sessionID string, page, limit int) ([]*model.Message, error)
	// MarkMessagesRead appends read receipts for the given messages (skipping
	// the reader's own and already-read ones) and recomputes the reader's
	// unread counter in the same transaction.
	MarkMessagesRead(ctx context.Context, sessionID, userID string, messageIDs []string) (*model.MarkReadResult, error)
}

type RequestStore interface {
	Create(ctx context.Context, req *model.ConnectionRequest) error
	Get(ctx context.Context, id string) (*model.ConnectionRequest, error)
	FindPendingByPair(ctx context.Context, userA, userB string) (*model.ConnectionRequest, error)
	HasApprovedPair(ctx context.Context, userA, userB string) (bool, error)
	ListPendingForRecipient(ctx context.Context, recipientID string) ([]*model.ConnectionRequest, error)
	// Resolve flips a pending request to approved/rejected. Returns
	// (nil, nil) when the request was no longer pending (lost race).
	Resolve(ctx context.Context, id string, status model.ConnectionRequestStatus, responseMessage string) (*model.ConnectionRequest, error)
	// PairStates returns, per counterpart user id, whether the caller's
	// pair has a pending or an approved request. Used to annotate the
	// available-users listing in one query.
	PairStates(ctx context.Context, userID string) (map[string]model.ConnectionRequestStatus, error)
}

type DirectoryStore interface {
	Get(ctx context.Context, id string) (*model.Employee, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Employee, error)
}

// Publisher is the realtime broker surface the services need. WSHub
// implements it; delivery is best-effort fire-and-forget.
type Publisher interface {
	PublishToSession(sessionID string, participants []string, event *model.WSEvent)
	PublishToUser(userID string, event *model.WSEvent)
}
