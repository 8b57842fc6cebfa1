package service

import (
	"context"
	"strings"
	"sync"

	"beeja-hrm-backend/internal/model"
	"beeja-hrm-backend/internal/policy"
)

// MaxMessageLen caps chat message content.
const MaxMessageLen = 4000

// ChatService orchestrates sessions, messages, read receipts and the
// broker fan-out. All dependencies are injected; there is no package
// state.
type ChatService struct {
	chats     ChatStore
	requests  RequestStore
	directory DirectoryStore
	presence  *PresenceTracker
	hub       Publisher

	// Per-session locks serialize persist-then-publish so room delivery
	// order always matches the stored sequence.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChatService(chats ChatStore, requests RequestStore, directory DirectoryStore, presence *PresenceTracker, hub Publisher) *ChatService {
	return &ChatService{
		chats:     chats,
		requests:  requests,
		directory: directory,
		presence:  presence,
		hub:       hub,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *ChatService) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// GetOrCreateSession returns the unique session for the caller and the
// other user, creating it if the pair is permitted to chat. When policy
// routes the pair through approval and no approved request exists, it
// fails with NeedsConnectionRequestError unless the caller holds an
// elevated role (elevated users never need approval to initiate).
func (s *ChatService) GetOrCreateSession(ctx context.Context, caller model.Identity, otherID string) (*model.ChatSession, error) {
	if otherID == caller.UserID {
		return nil, &ValidationError{Field: "other_user_id", Reason: "cannot chat with yourself"}
	}

	other, err := s.directory.Get(ctx, otherID)
	if err != nil {
		return nil, unavailable("directory lookup", err)
	}
	if other == nil {
		return nil, ErrNotFound
	}

	session, err := s.chats.FindSessionByPair(ctx, caller.UserID, otherID)
	if err != nil {
		return nil, unavailable("find session", err)
	}
	if session != nil {
		return session, nil
	}

	if policy.Decide(caller.Role, other.Role) == policy.RequiresApproval && !caller.Role.Elevated() {
		approved, err := s.requests.HasApprovedPair(ctx, caller.UserID, otherID)
		if err != nil {
			return nil, unavailable("check approval", err)
		}
		if !approved {
			return nil, &NeedsConnectionRequestError{RecipientID: other.ID, RecipientRole: other.Role}
		}
	}

	session, err = s.chats.CreateSession(ctx, caller.UserID, otherID)
	if err != nil {
		return nil, unavailable("create session", err)
	}
	return session, nil
}

// ListSessionsForUser returns the caller's sessions newest-activity
// first, annotated with live presence of the other participant.
func (s *ChatService) ListSessionsForUser(ctx context.Context, userID string) ([]*model.SessionSummary, error) {
	summaries, err := s.chats.ListSessions(ctx, userID)
	if err != nil {
		return nil, unavailable("list sessions", err)
	}
	for _, sum := range summaries {
		sum.OtherOnline = s.presence.IsOnline(sum.Other.ID)
	}
	return summaries, nil
}

// AvailableUsers searches the directory and annotates each entry with the
// caller's chat standing: whether a session can be opened directly,
// whether approval is needed first, and whether a request is in flight.
func (s *ChatService) AvailableUsers(ctx context.Context, caller model.Identity, search string, limit int) ([]*model.AvailableUser, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	employees, err := s.directory.Search(ctx, search, limit)
	if err != nil {
		return nil, unavailable("directory search", err)
	}

	states, err := s.requests.PairStates(ctx, caller.UserID)
	if err != nil {
		return nil, unavailable("pair states", err)
	}

	out := make([]*model.AvailableUser, 0, len(employees))
	for _, emp := range employees {
		if emp.ID == caller.UserID {
			continue
		}
		gated := policy.Decide(caller.Role, emp.Role) == policy.RequiresApproval &&
			!caller.Role.Elevated() &&
			states[emp.ID] != model.ConnectionApproved
		out = append(out, &model.AvailableUser{
			Employee:          *emp,
			CanChat:           !gated,
			NeedsApproval:     gated,
			HasPendingRequest: states[emp.ID] == model.ConnectionPending,
		})
	}
	return out, nil
}

// SendMessage appends a message to the session, bumps the other
// participant's unread counter, and fans the event out in stored order.
func (s *ChatService) SendMessage(ctx context.Context, sessionID string, sender model.Identity, req *model.SendMessageRequest) (*model.Message, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Attachments) == 0 {
		return nil, &ValidationError{Field: "content", Reason: "message needs text or at least one attachment"}
	}
	if len(content) > MaxMessageLen {
		return nil, &ValidationError{Field: "content", Reason: "message too long"}
	}

	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return nil, unavailable("get session", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if !session.HasParticipant(sender.UserID) {
		return nil, ErrForbidden
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := s.chats.AppendMessage(ctx, sessionID, sender.UserID, content, req.Attachments)
	if err != nil {
		return nil, unavailable("append message", err)
	}

	s.hub.PublishToSession(sessionID, []string{session.ParticipantA, session.ParticipantB}, model.NewMessageEvent(msg))
	return msg, nil
}

// ListMessages returns one reverse-chronological page of the session's
// messages, newest first.
func (s *ChatService) ListMessages(ctx context.Context, sessionID string, caller model.Identity, page, limit int) ([]*model.Message, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return nil, unavailable("get session", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if !session.HasParticipant(caller.UserID) {
		return nil, ErrForbidden
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	msgs, err := s.chats.ListMessages(ctx, sessionID, page, limit)
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	return msgs, nil
}

// MarkRead appends read receipts for the caller and resets their unread
// counter to the count of still-unread messages. The counter is
// recomputed inside the store transaction, so a send racing in is neither
// lost nor double-counted.
func (s *ChatService) MarkRead(ctx context.Context, sessionID string, caller model.Identity, messageIDs []string) (*model.MarkReadResult, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		return nil, unavailable("get session", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if !session.HasParticipant(caller.UserID) {
		return nil, ErrForbidden
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	result, err := s.chats.MarkMessagesRead(ctx, sessionID, caller.UserID, messageIDs)
	if err != nil {
		return nil, unavailable("mark read", err)
	}

	s.hub.PublishToSession(sessionID, []string{session.ParticipantA, session.ParticipantB}, model.MessagesReadEvent(result))
	return result, nil
}
