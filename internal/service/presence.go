package service

import (
	"sync"

	"beeja-hrm-backend/internal/model"
)

// PresenceTracker is the process-wide online set. Entries are
// reference-counted per user id so the same user connecting from several
// tabs produces one user_online on the first socket and one user_offline
// when the last socket closes, with no flapping in between.
//
// It is constructed at server start and injected into the hub; nothing is
// persisted, the set rebuilds from live connections after a restart.
type PresenceTracker struct {
	mu   sync.Mutex
	refs map[string]int
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{refs: make(map[string]int)}
}

// Connect records one more socket for userID and reports whether the user
// just came online (0 -> 1 transition).
func (p *PresenceTracker) Connect(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refs[userID]++
	return p.refs[userID] == 1
}

// Disconnect records one socket closing and reports whether the user just
// went offline (last socket gone).
func (p *PresenceTracker) Disconnect(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.refs[userID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(p.refs, userID)
		return true
	}
	p.refs[userID] = n - 1
	return false
}

func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs[userID] > 0
}

// Online returns a snapshot of the currently connected user ids.
func (p *PresenceTracker) Online() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.refs))
	for id := range p.refs {
		ids = append(ids, id)
	}
	return ids
}

func (p *PresenceTracker) OnlineCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refs)
}

// presenceEvent builds the broadcast for a tracker transition.
func presenceEvent(userID string, online bool) *model.WSEvent {
	if online {
		return model.UserOnlineEvent(userID)
	}
	return model.UserOfflineEvent(userID)
}
