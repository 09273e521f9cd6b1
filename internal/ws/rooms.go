package ws

import (
	"log"
	"sync"
)

// Rooms maps room names to the connections currently joined. A connection
// may sit in many rooms (its personal room plus any open conversations); a
// reverse index makes disconnect cleanup O(rooms joined).
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[*Client]struct{}
	joined  map[*Client]map[string]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[*Client]struct{}),
		joined:  make(map[*Client]map[string]struct{}),
	}
}

// Join adds the connection to the room. No-op if already joined.
func (r *Rooms) Join(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		set = make(map[*Client]struct{})
		r.members[room] = set
	}
	set[c] = struct{}{}

	rooms, ok := r.joined[c]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[c] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes the connection from the room, pruning empty sets.
func (r *Rooms) Leave(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, c)
}

func (r *Rooms) leaveLocked(room string, c *Client) {
	if set, ok := r.members[room]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, c)
		}
	}
}

// LeaveAll removes the connection from every room it joined. Called on
// disconnect; there is no graceful-shutdown delay.
func (r *Rooms) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[c] {
		r.leaveLocked(room, c)
	}
}

// InRoom reports whether the connection is currently joined to the room.
func (r *Rooms) InRoom(room string, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room][c]
	return ok
}

// Broadcast delivers an event to every connection in the room, including the
// sender's own. Delivery is fire-and-forget: a client whose send buffer is
// full misses the live event and recovers via history fetch.
func (r *Rooms) Broadcast(room string, event string, data any) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("encode %s event: %v", event, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.members[room] {
		select {
		case c.send <- payload:
		default:
			log.Printf("dropping %s event for slow connection %s", event, c.id)
		}
	}
}
