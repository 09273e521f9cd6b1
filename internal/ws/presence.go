package ws

import "sync"

// Presence tracks which users currently hold live connections. A user is
// online iff their set is non-empty; empty sets are pruned inside the same
// critical section that detects the edge, so edge detection can never race
// the mutation it derives from.
type Presence struct {
	mu    sync.RWMutex
	conns map[int64]map[*Client]struct{}
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[int64]map[*Client]struct{})}
}

// Add registers a connection for the user and reports whether it was the
// user's first one, i.e. the offline-to-online edge.
func (p *Presence) Add(userID int64, c *Client) (first bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		p.conns[userID] = set
	}
	first = len(set) == 0
	set[c] = struct{}{}
	return first
}

// Remove drops a connection. removed is false when the connection was never
// registered (or already removed); last reports the online-to-offline edge.
func (p *Presence) Remove(userID int64, c *Client) (removed, last bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false, false
	}
	if _, ok := set[c]; !ok {
		return false, false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true, true
	}
	return true, false
}

func (p *Presence) IsOnline(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID]) > 0
}

// ConnectionCount returns the number of live connections the user holds.
func (p *Presence) ConnectionCount(userID int64) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns[userID])
}
