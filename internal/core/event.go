package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomData delivers the full room snapshot to a client that joined.
	EventRoomData EventKind = iota
	// EventUserJoined notifies room members about a new member.
	EventUserJoined
	// EventUserLeft notifies room members that a member is gone.
	EventUserLeft
	// EventNewMessage delivers a translated chat message to every member.
	EventNewMessage
	// EventError notifies the originating client about a failed request.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventRoomData:
		return "room-data"
	case EventUserJoined:
		return "user-joined"
	case EventUserLeft:
		return "user-left"
	case EventNewMessage:
		return "new-message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be mutated.
type Event struct {
	Kind     EventKind
	Room     string
	RoomData *Room       // EventRoomData
	User     User        // EventUserJoined
	UserID   string      // EventUserLeft
	Message  ChatMessage // EventNewMessage
	Error    *CoreError  // EventError
}

func errorEvent(room, code, msg string) *Event {
	return &Event{Kind: EventError, Room: room, Error: coreError(code, msg)}
}
