package support

import (
	"sort"
	"sync"
)

// Registry tracks which users currently hold an open ticket for one
// support queue. All operations are idempotent.
type Registry struct {
	mu      sync.Mutex
	members map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]struct{})}
}

func (r *Registry) Has(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[userID]
	return ok
}

// Reserve adds the user and reports whether the entry is new. A false
// return means somebody holds the reservation already; under concurrent
// presses this, not the earlier Has check, is the duplicate gate.
func (r *Registry) Reserve(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[userID]; ok {
		return false
	}
	r.members[userID] = struct{}{}
	return true
}

func (r *Registry) Release(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, userID)
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Subjects returns the reserved user IDs in stable order.
func (r *Registry) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear empties the registry and returns how many entries were dropped.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.members)
	r.members = make(map[string]struct{})
	return n
}
