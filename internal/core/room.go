package core

import (
	"slices"
	"time"
)

// Room is a point-in-time copy of a chat room handed out by the Registry.
type Room struct {
	ID       string
	Name     string
	Messages []ChatMessage
	Users    []User
}

// DefaultRoomName is the display name of a room created without one.
func DefaultRoomName(id string) string {
	return "Chat Room " + id
}

// roomState is the registry-owned mutable room.
type roomState struct {
	id         string
	name       string
	messages   []ChatMessage
	users      []User
	lastActive time.Time
}

func newRoomState(id, name string, now time.Time) *roomState {
	if name == "" {
		name = DefaultRoomName(id)
	}
	return &roomState{id: id, name: name, lastActive: now}
}

func (r *roomState) snapshot() Room {
	return Room{
		ID:       r.id,
		Name:     r.name,
		Messages: slices.Clone(r.messages),
		Users:    slices.Clone(r.users),
	}
}

func (r *roomState) hasUser(id string) bool {
	return slices.ContainsFunc(r.users, func(u User) bool { return u.ID == id })
}

// addUser inserts u unless a user with the same id is present. Returns true if added.
func (r *roomState) addUser(u User) bool {
	if r.hasUser(u.ID) {
		return false
	}
	r.users = append(r.users, u)
	return true
}

// removeUser deletes the user with id. Returns true if removed.
func (r *roomState) removeUser(id string) bool {
	before := len(r.users)
	r.users = slices.DeleteFunc(r.users, func(u User) bool { return u.ID == id })
	return len(r.users) != before
}
