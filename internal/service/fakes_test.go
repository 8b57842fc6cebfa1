package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"beeja-hrm-backend/internal/model"
)

// In-memory store fakes mirroring the repository semantics closely
// enough to exercise the services without Postgres.

type fakeChatStore struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession
	messages map[string][]*model.Message          // sessionID -> ascending seq
	reads    map[string]map[string]time.Time      // messageID -> userID -> readAt
	nextID   int
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{
		sessions: make(map[string]*model.ChatSession),
		messages: make(map[string][]*model.Message),
		reads:    make(map[string]map[string]time.Time),
	}
}

func (f *fakeChatStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeChatStore) GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeChatStore) FindSessionByPair(ctx context.Context, userA, userB string) (*model.ChatSession, error) {
	a, b := model.NormalizePair(userA, userB)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ParticipantA == a && s.ParticipantB == b {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeChatStore) CreateSession(ctx context.Context, userA, userB string) (*model.ChatSession, error) {
	a, b := model.NormalizePair(userA, userB)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ParticipantA == a && s.ParticipantB == b {
			copied := *s
			return &copied, nil
		}
	}
	s := &model.ChatSession{
		ID:           f.id("session"),
		ParticipantA: a,
		ParticipantB: b,
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}
	f.sessions[s.ID] = s
	copied := *s
	return &copied, nil
}

func (f *fakeChatStore) ListSessions(ctx context.Context, userID string) ([]*model.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.SessionSummary
	for _, s := range f.sessions {
		if !s.HasParticipant(userID) {
			continue
		}
		out = append(out, &model.SessionSummary{
			SessionID:          s.ID,
			Other:              model.Employee{ID: s.OtherParticipant(userID)},
			LastActivity:       s.LastActivity,
			LastMessagePreview: s.LastMessagePreview,
			LastMessageSender:  s.LastMessageSender,
			Unread:             s.UnreadFor(userID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

func (f *fakeChatStore) AppendMessage(ctx context.Context, sessionID, senderID, content string, attachments []model.Attachment) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s gone", sessionID)
	}
	s.LastSeq++
	msg := &model.Message{
		ID:          f.id("msg"),
		SessionID:   sessionID,
		Seq:         s.LastSeq,
		SenderID:    senderID,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}
	f.messages[sessionID] = append(f.messages[sessionID], msg)
	s.LastActivity = msg.CreatedAt
	s.LastMessageID = msg.ID
	s.LastMessagePreview = content
	s.LastMessageSender = senderID
	if senderID == s.ParticipantA {
		s.UnreadB++
	} else {
		s.UnreadA++
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeChatStore) ListMessages(ctx context.Context, sessionID string, page, limit int) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[sessionID]
	var out []*model.Message
	// Newest first, like the repository.
	for i := len(msgs) - 1; i >= 0; i-- {
		copied := *msgs[i]
		for userID, at := range f.reads[copied.ID] {
			copied.ReadBy = append(copied.ReadBy, model.ReadReceipt{UserID: userID, ReadAt: at})
		}
		out = append(out, &copied)
	}
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (f *fakeChatStore) MarkMessagesRead(ctx context.Context, sessionID, userID string, messageIDs []string) (*model.MarkReadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s gone", sessionID)
	}
	want := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		want[id] = true
	}
	now := time.Now()
	result := &model.MarkReadResult{SessionID: sessionID, ReaderID: userID, ReadAt: now}
	for _, msg := range f.messages[sessionID] {
		if !want[msg.ID] || msg.SenderID == userID {
			continue
		}
		if f.reads[msg.ID] == nil {
			f.reads[msg.ID] = make(map[string]time.Time)
		}
		if _, already := f.reads[msg.ID][userID]; already {
			continue
		}
		f.reads[msg.ID][userID] = now
		result.MessageIDs = append(result.MessageIDs, msg.ID)
	}
	unread := 0
	for _, msg := range f.messages[sessionID] {
		if msg.SenderID == userID {
			continue
		}
		if _, read := f.reads[msg.ID][userID]; !read {
			unread++
		}
	}
	result.Unread = unread
	if userID == s.ParticipantA {
		s.UnreadA = unread
	} else {
		s.UnreadB = unread
	}
	return result, nil
}

type fakeRequestStore struct {
	mu       sync.Mutex
	requests map[string]*model.ConnectionRequest
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[string]*model.ConnectionRequest)}
}

func (f *fakeRequestStore) Create(ctx context.Context, req *model.ConnectionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, b := model.NormalizePair(req.RequesterID, req.RecipientID)
	for _, existing := range f.requests {
		ea, eb := model.NormalizePair(existing.RequesterID, existing.RecipientID)
		if ea == a && eb == b && existing.Status == model.ConnectionPending {
			return fmt.Errorf("duplicate pending request for pair")
		}
	}
	copied := *req
	f.requests[req.ID] = &copied
	return nil
}

func (f *fakeRequestStore) Get(ctx context.Context, id string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeRequestStore) FindPendingByPair(ctx context.Context, userA, userB string) (*model.ConnectionRequest, error) {
	a, b := model.NormalizePair(userA, userB)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		ra, rb := model.NormalizePair(req.RequesterID, req.RecipientID)
		if ra == a && rb == b && req.Status == model.ConnectionPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) HasApprovedPair(ctx context.Context, userA, userB string) (bool, error) {
	a, b := model.NormalizePair(userA, userB)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		ra, rb := model.NormalizePair(req.RequesterID, req.RecipientID)
		if ra == a && rb == b && req.Status == model.ConnectionApproved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) ListPendingForRecipient(ctx context.Context, recipientID string) ([]*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ConnectionRequest
	for _, req := range f.requests {
		if req.RecipientID == recipientID && req.Status == model.ConnectionPending {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) Resolve(ctx context.Context, id string, status model.ConnectionRequestStatus, responseMessage string) (*model.ConnectionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != model.ConnectionPending {
		return nil, nil
	}
	now := time.Now()
	req.Status = status
	req.RespondedAt = &now
	req.ResponseMessage = responseMessage
	copied := *req
	return &copied, nil
}

func (f *fakeRequestStore) PairStates(ctx context.Context, userID string) (map[string]model.ConnectionRequestStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	states := make(map[string]model.ConnectionRequestStatus)
	for _, req := range f.requests {
		if req.RequesterID != userID && req.RecipientID != userID {
			continue
		}
		if req.Status != model.ConnectionPending && req.Status != model.ConnectionApproved {
			continue
		}
		other := req.RequesterID
		if other == userID {
			other = req.RecipientID
		}
		if states[other] != model.ConnectionApproved {
			states[other] = req.Status
		}
	}
	return states, nil
}

type fakeDirectory struct {
	employees map[string]*model.Employee
}

func newFakeDirectory(employees ...*model.Employee) *fakeDirectory {
	d := &fakeDirectory{employees: make(map[string]*model.Employee)}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

func (f *fakeDirectory) Get(ctx context.Context, id string) (*model.Employee, error) {
	if e, ok := f.employees[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeDirectory) Search(ctx context.Context, query string, limit int) ([]*model.Employee, error) {
	var out []*model.Employee
	for _, e := range f.employees {
		copied := *e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeHub records published events in order.
type fakeHub struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	sessionID string
	userID    string
	event     *model.WSEvent
}

func (f *fakeHub) PublishToSession(sessionID string, participants []string, event *model.WSEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{sessionID: sessionID, event: event})
}

func (f *fakeHub) PublishToUser(userID string, event *model.WSEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{userID: userID, event: event})
}

func (f *fakeHub) byType(typ string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, e := range f.events {
		if e.event.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
