package app

import (
	"sync"

	"github.com/yuvamcybercure/hrsync/internal/domain"
)

// Rooms tracks which connections are joined to which named channels.
// Membership is connection-scoped: a user with two connections joins
// rooms independently on each.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[string]struct{}
	conns map[string]map[domain.RoomID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[domain.RoomID]map[string]struct{}),
		conns: make(map[string]map[domain.RoomID]struct{}),
	}
}

// Join adds connID to room. Idempotent.
func (r *Rooms) Join(connID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][connID] = struct{}{}
	if r.conns[connID] == nil {
		r.conns[connID] = make(map[domain.RoomID]struct{})
	}
	r.conns[connID][room] = struct{}{}
}

// Leave removes connID from a single room without disconnecting.
func (r *Rooms) Leave(connID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

// DropConn removes connID from every room it joined. Called on disconnect.
func (r *Rooms) DropConn(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.conns[connID] {
		r.leaveLocked(connID, room)
	}
}

func (r *Rooms) leaveLocked(connID string, room domain.RoomID) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if joined, ok := r.conns[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.conns, connID)
		}
	}
}

func (r *Rooms) IsMember(connID string, room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][connID]
	return ok
}

// Members returns a snapshot of the connection ids joined to room.
func (r *Rooms) Members(room domain.RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rooms[room]))
	for connID := range r.rooms[room] {
		out = append(out, connID)
	}
	return out
}

func (r *Rooms) MemberCount(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
