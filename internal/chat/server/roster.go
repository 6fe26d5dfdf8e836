package server

import (
	"sync"

	"github.com/elishadar/CN-Ex4-Chat/internal/chat/channel"
)

// roster - mapping of logged-in display names to their channels.
// The one shared mutable resource of the server; every access goes
// through the mutex. Insertion order is kept for roster snapshots.
type roster struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*channel.Channel
}

func newRoster() *roster {
	return &roster{
		entries: make(map[string]*channel.Channel),
	}
}

// add - inserts the entry unless the name is taken.
// Check and insert happen under one lock, so two concurrent logins
// with the same name can not both succeed.
func (r *roster) add(name string, ch *channel.Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return false
	}
	r.entries[name] = ch
	r.order = append(r.order, name)
	return true
}

func (r *roster) remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *roster) get(name string) (*channel.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.entries[name]
	return ch, ok
}

// names - snapshot of registered names in login order.
func (r *roster) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// channels - snapshot of registered channels in login order.
func (r *roster) channels() []*channel.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	channels := make([]*channel.Channel, 0, len(r.order))
	for _, name := range r.order {
		channels = append(channels, r.entries[name])
	}
	return channels
}

func (r *roster) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
