package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom adds User to Room and subscribes the client to it.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom removes UserID from Room and unsubscribes the client.
	CommandLeaveRoom
	// CommandSendMessage translates Text and broadcasts it to Room.
	CommandSendMessage
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join-room"
	case CommandLeaveRoom:
		return "leave-room"
	case CommandSendMessage:
		return "send-message"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Room   string
	User   User   // join, send
	UserID string // leave
	Text   string // send
}
