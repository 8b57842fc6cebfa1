package chatclient

import (
	"context"

	"beeja-hrm-backend/internal/model"
)

// Projection is one UI surface's view over the shared store: the session
// list plus, while a conversation is on screen, its message buffer. The
// full chat view and the shortcut overlay are both Projections; neither
// carries reconciliation logic of its own.
type Projection struct {
	store *Store
	name  string

	openID   string          // guarded by store.mu
	messages []model.Message // ascending by seq, guarded by store.mu
}

// Open loads a conversation into the projection and reports the visible
// unread messages as read.
func (p *Projection) Open(ctx context.Context, sessionID string) error {
	if err := p.reload(ctx, sessionID); err != nil {
		return err
	}

	p.store.mu.Lock()
	var unreadIDs []string
	for _, msg := range p.messages {
		if msg.SenderID == p.store.selfID {
			continue
		}
		seen := false
		for _, r := range msg.ReadBy {
			if r.UserID == p.store.selfID {
				seen = true
				break
			}
		}
		if !seen {
			unreadIDs = append(unreadIDs, msg.ID)
		}
	}
	markRead := p.store.markRead
	p.store.mu.Unlock()

	if len(unreadIDs) > 0 && markRead != nil {
		markRead(sessionID, unreadIDs)
	}
	return nil
}

// reload fetches the newest page and installs it as the buffer.
func (p *Projection) reload(ctx context.Context, sessionID string) error {
	page, err := p.store.fetch.Messages(ctx, sessionID, 1, 50)
	if err != nil {
		return err
	}

	// The server pages newest-first; the buffer keeps ascending order.
	msgs := make([]model.Message, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		msgs = append(msgs, *page[i])
	}

	p.store.mu.Lock()
	p.openID = sessionID
	p.messages = msgs
	p.store.mu.Unlock()
	return nil
}

// Close drops the open conversation; session summaries stay cached.
func (p *Projection) Close() {
	p.store.mu.Lock()
	p.openID = ""
	p.messages = nil
	p.store.mu.Unlock()
}

// OpenSession returns the id of the conversation on screen, or "".
func (p *Projection) OpenSession() string {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	return p.openID
}

// Messages returns a copy of the open conversation's buffer in send
// order.
func (p *Projection) Messages() []model.Message {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	out := make([]model.Message, len(p.messages))
	copy(out, p.messages)
	return out
}
