package core

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

// Registry is the in-memory store of chat rooms keyed by room id. It owns
// room creation, membership and message history. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
	now   func() time.Time

	roomsGauge prometheus.Gauge
	reaped     prometheus.Counter
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithClock replaces time.Now for activity tracking.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithMetrics reports the room count to rooms and evictions to reaped.
// Either may be nil. Registries built without it report nothing.
func WithMetrics(rooms prometheus.Gauge, reaped prometheus.Counter) RegistryOption {
	return func(r *Registry) {
		r.roomsGauge = rooms
		r.reaped = reaped
	}
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms: make(map[string]*roomState),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureRoom returns the room with id, creating it with a default name if absent.
func (r *Registry) EnsureRoom(id string) Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureLocked(id).snapshot()
}

// CreateRoom adds a room with an explicit display name. An empty name falls
// back to DefaultRoomName.
func (r *Registry) CreateRoom(id, name string) (Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		return Room{}, ErrRoomExists
	}
	room := newRoomState(id, name, r.now())
	r.rooms[id] = room
	r.recordRoomsLocked()
	return room.snapshot(), nil
}

// GetRoom looks a room up without creating it.
func (r *Registry) GetRoom(id string) (Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return Room{}, false
	}
	return room.snapshot(), true
}

// AddUser puts u into the room, creating the room first if absent.
// Returns false if a user with the same id was already a member.
func (r *Registry) AddUser(roomID string, u User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.ensureLocked(roomID)
	room.lastActive = r.now()
	return room.addUser(u)
}

// RemoveUser deletes the user from the room. Missing room or user is a no-op
// reported as false.
func (r *Registry) RemoveUser(roomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.lastActive = r.now()
	return room.removeUser(userID)
}

// AppendMessage appends msg to the room history. Returns false, leaving the
// registry untouched, if the room does not exist.
func (r *Registry) AppendMessage(roomID string, msg ChatMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	room.messages = append(room.messages, msg)
	room.lastActive = r.now()
	return true
}

// Languages returns the distinct languages of the current room members in
// join order.
func (r *Registry) Languages(roomID string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false
	}
	return lo.Uniq(lo.Map(room.users, func(u User, _ int) string { return u.Language })), true
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Reap evicts rooms without users that have been idle for longer than idle.
// Rooms for which keep returns true survive. Returns the evicted ids.
func (r *Registry) Reap(idle time.Duration, keep func(roomID string) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	var evicted []string
	for id, room := range r.rooms {
		if len(room.users) > 0 || room.lastActive.After(cutoff) {
			continue
		}
		if keep != nil && keep(id) {
			continue
		}
		delete(r.rooms, id)
		evicted = append(evicted, id)
	}
	if len(evicted) > 0 {
		r.recordRoomsLocked()
		if r.reaped != nil {
			r.reaped.Add(float64(len(evicted)))
		}
	}
	return evicted
}

func (r *Registry) ensureLocked(id string) *roomState {
	room, ok := r.rooms[id]
	if !ok {
		room = newRoomState(id, "", r.now())
		r.rooms[id] = room
		r.recordRoomsLocked()
	}
	return room
}

func (r *Registry) recordRoomsLocked() {
	if r.roomsGauge != nil {
		r.roomsGauge.Set(float64(len(r.rooms)))
	}
}
