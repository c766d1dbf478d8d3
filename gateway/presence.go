package gateway

import (
	"sync"

	"chat-hub/domain"
)

// Presence tracks which identities are currently viewing a conversation.
// Membership is driven only by explicit join/leave signals (and the
// disconnect cleanup); it is independent of the Registry, so an identity
// can be present with zero live connections until something removes it.
//
// Presence is safe for concurrent use by multiple goroutines.
type Presence struct {
	mu     sync.RWMutex
	online map[domain.Identity]struct{}
}

func NewPresence() *Presence {
	return &Presence{online: make(map[domain.Identity]struct{})}
}

// Join marks an identity as online. Joining twice is a no-op.
func (p *Presence) Join(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[id] = struct{}{}
}

// Leave removes an identity. Leaving an absent identity is a no-op.
func (p *Presence) Leave(id domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, id)
}

// Snapshot returns the identities currently joined, in no particular order.
func (p *Presence) Snapshot() []domain.Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]domain.Identity, 0, len(p.online))
	for id := range p.online {
		ids = append(ids, id)
	}
	return ids
}
