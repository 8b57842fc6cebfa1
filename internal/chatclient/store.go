// Package chatclient is the client-side session cache shared by the two
// chat surfaces (the full chat view and the shortcut overlay). Both
// projections hang off one Store so the reconciliation rules — unread
// bookkeeping, message appends, read-receipt merging — exist in exactly
// one place.
package chatclient

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"beeja-hrm-backend/internal/model"
)

// Fetcher re-fetches server state over HTTP. It is the fallback for
// everything the push channel does not replay: initial load and resync
// after a dropped connection.
type Fetcher interface {
	Sessions(ctx context.Context) ([]*model.SessionSummary, error)
	Messages(ctx context.Context, sessionID string, page, limit int) ([]*model.Message, error)
}

// MarkReadFunc reports messages the user has seen back to the server.
type MarkReadFunc func(sessionID string, messageIDs []string)

// Store is the shared client-local cache keyed by session id.
type Store struct {
	mu       sync.Mutex
	selfID   string
	fetch    Fetcher
	markRead MarkReadFunc

	sessions    map[string]*model.SessionSummary
	requests    []model.ConnectionRequest // incoming pending, for the overlay badge
	projections map[*Projection]bool
}

func NewStore(selfID string, fetch Fetcher, markRead MarkReadFunc) *Store {
	return &Store{
		selfID:      selfID,
		fetch:       fetch,
		markRead:    markRead,
		sessions:    make(map[string]*model.SessionSummary),
		projections: make(map[*Projection]bool),
	}
}

// Projection registers a new UI surface on the store.
func (s *Store) Projection(name string) *Projection {
	p := &Projection{store: s, name: name}
	s.mu.Lock()
	s.projections[p] = true
	s.mu.Unlock()
	return p
}

// Resync re-fetches the session list and every open projection's
// messages. Called on initial load and after every reconnect, since
// events missed while disconnected are not replayed.
func (s *Store) Resync(ctx context.Context) error {
	summaries, err := s.fetch.Sessions(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions = make(map[string]*model.SessionSummary, len(summaries))
	for _, sum := range summaries {
		s.sessions[sum.SessionID] = sum
	}
	open := make(map[*Projection]string)
	for p := range s.projections {
		if p.openID != "" {
			open[p] = p.openID
		}
	}
	s.mu.Unlock()

	for p, sessionID := range open {
		if err := p.reload(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// Sessions returns the cached list, newest activity first.
func (s *Store) Sessions() []*model.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.SessionSummary, 0, len(s.sessions))
	for _, sum := range s.sessions {
		copied := *sum
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// Unread returns the cached unread counter for one session.
func (s *Store) Unread(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sum, ok := s.sessions[sessionID]; ok {
		return sum.Unread
	}
	return 0
}

// TotalUnread is the badge number on the shortcut overlay.
func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, sum := range s.sessions {
		total += sum.Unread
	}
	return total
}

// PendingRequests returns incoming connection requests seen since the
// last resync.
func (s *Store) PendingRequests() []model.ConnectionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ConnectionRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Apply folds one push-channel event into the cache. The switch is
// exhaustive over the server-to-client event set; unknown types are
// ignored so old clients survive new server events.
func (s *Store) Apply(event *model.WSEvent) {
	switch event.Type {
	case model.EventNewMessage:
		var payload model.NewMessagePayload
		if json.Unmarshal(event.Data, &payload) == nil {
			s.applyNewMessage(&payload)
		}

	case model.EventMessagesRead:
		var payload model.MessagesReadPayload
		if json.Unmarshal(event.Data, &payload) == nil {
			s.applyMessagesRead(&payload)
		}

	case model.EventUserOnline, model.EventUserOffline:
		var payload model.PresencePayload
		if json.Unmarshal(event.Data, &payload) == nil {
			s.applyPresence(payload.UserID, event.Type == model.EventUserOnline)
		}

	case model.EventNewConnectionRequest:
		var payload model.ConnectionRequestPayload
		if json.Unmarshal(event.Data, &payload) == nil {
			s.mu.Lock()
			s.requests = append(s.requests, payload.Request)
			s.mu.Unlock()
		}

	case model.EventConnectionRequestResponded:
		// Session availability changes server-side; the next open or
		// resync picks it up. Nothing cached to update.

	case model.EventPong:
	}
}

func (s *Store) applyNewMessage(payload *model.NewMessagePayload) {
	msg := payload.Message

	s.mu.Lock()
	sum, ok := s.sessions[payload.SessionID]
	if !ok {
		// First activity on a session created since the last fetch; a
		// stub keeps counters right until the next resync fills it in.
		sum = &model.SessionSummary{
			SessionID: payload.SessionID,
			Other:     model.Employee{ID: msg.SenderID},
		}
		s.sessions[payload.SessionID] = sum
	}
	sum.LastActivity = msg.CreatedAt
	sum.LastMessagePreview = msg.Content
	sum.LastMessageSender = msg.SenderID

	openAnywhere := false
	var toAck []*Projection
	for p := range s.projections {
		if p.openID == payload.SessionID {
			openAnywhere = true
			p.messages = append(p.messages, msg)
			toAck = append(toAck, p)
		}
	}

	fromPeer := msg.SenderID != s.selfID
	if fromPeer && !openAnywhere {
		// Optimistic increment; the server's messages_read event
		// corrects it if another device reads first.
		sum.Unread++
	}
	s.mu.Unlock()

	// A message arriving in an open conversation is read on sight.
	if fromPeer && len(toAck) > 0 && s.markRead != nil {
		s.markRead(payload.SessionID, []string{msg.ID})
	}
}

func (s *Store) applyMessagesRead(payload *model.MessagesReadPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload.ReaderID == s.selfID {
		if sum, ok := s.sessions[payload.SessionID]; ok {
			sum.Unread = payload.Unread
		}
		return
	}

	// Peer read receipts: annotate messages visible in open projections.
	marked := make(map[string]bool, len(payload.MessageIDs))
	for _, id := range payload.MessageIDs {
		marked[id] = true
	}
	for p := range s.projections {
		if p.openID != payload.SessionID {
			continue
		}
		for i := range p.messages {
			if marked[p.messages[i].ID] {
				p.messages[i].ReadBy = append(p.messages[i].ReadBy, model.ReadReceipt{UserID: payload.ReaderID})
			}
		}
	}
}

func (s *Store) applyPresence(userID string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sum := range s.sessions {
		if sum.Other.ID == userID {
			sum.OtherOnline = online
		}
	}
}
