package gateway

import (
	"sync"

	"chat-hub/domain"
)

// Registry maps each identity to its set of live connection handles. A user
// on several devices has several handles under one identity. All access
// goes through the methods below; the maps are never exposed.
//
// Registry is safe for concurrent use by multiple goroutines and none of
// its operations block on I/O.
type Registry struct {
	mu      sync.RWMutex
	handles map[domain.Identity]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[domain.Identity]map[*Client]struct{})}
}

// Register adds a handle to the identity's set, creating the entry if the
// identity had no live connections.
func (r *Registry) Register(id domain.Identity, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handles[id]
	if !ok {
		set = make(map[*Client]struct{})
		r.handles[id] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a handle from the identity's set. When the last handle
// goes, the entry itself is deleted so no empty sets linger. Unregistering
// a handle that is not present is a no-op.
func (r *Registry) Unregister(id domain.Identity, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handles[id]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.handles, id)
	}
}

// ResolveMany returns the live handles of every listed identity that has an
// entry. Offline identities contribute nothing. Repeated identities in the
// input do not produce duplicate handles.
func (r *Registry) ResolveMany(ids []domain.Identity) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var resolved []*Client
	seen := make(map[domain.Identity]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for c := range r.handles[id] {
			resolved = append(resolved, c)
		}
	}
	return resolved
}

// All returns every live handle, used for the presence broadcast that
// follows a disconnect.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Client
	for _, set := range r.handles {
		for c := range set {
			all = append(all, c)
		}
	}
	return all
}

// Counts returns the number of registered identities and live handles.
func (r *Registry) Counts() (identities, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, set := range r.handles {
		connections += len(set)
	}
	return len(r.handles), connections
}
