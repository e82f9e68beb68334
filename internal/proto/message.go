// Package proto defines the realtime wire format. Every frame, in both
// directions, is a JSON envelope {"event": <name>, "data": <payload>}; event
// names and payload field names are fixed for compatibility with existing
// clients.
package proto

import "encoding/json"

// Client -> server events.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
)

// Server -> client events.
const (
	EventRoomData   = "room-data"
	EventUserJoined = "user-joined"
	EventUserLeft   = "user-left"
	EventNewMessage = "new-message"
	EventError      = "error"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// User identifies a participant; sent on join and with every message.
type User struct {
	ID       string `json:"id" validate:"required,max=128"`
	Name     string `json:"name" validate:"required,max=64"`
	Language string `json:"language" validate:"required,language"`
}

// JoinRoomData is the join-room payload.
type JoinRoomData struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
	User   User   `json:"user"`
}

// LeaveRoomData is the leave-room payload.
type LeaveRoomData struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
	UserID string `json:"userId" validate:"required,max=128"`
}

// SendMessageData is the send-message payload.
type SendMessageData struct {
	RoomID  string `json:"roomId" validate:"required,max=128"`
	Message string `json:"message" validate:"required,max=4000"`
	User    User   `json:"user"`
}

// ChatMessage is the new-message payload and an element of room-data messages.
type ChatMessage struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	UserName     string            `json:"userName"`
	OriginalText string            `json:"originalText"`
	Translations map[string]string `json:"translations"`
	Timestamp    int64             `json:"timestamp"`
}

// RoomData is the full room snapshot sent to a joining client.
type RoomData struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Messages []ChatMessage `json:"messages"`
	Users    []User        `json:"users"`
}

// Error is the error payload.
type Error struct {
	Message string `json:"message"`
}
