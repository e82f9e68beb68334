package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/babelchat/internal/metrics"
)

// Translator produces one text per language for a chat message. The result
// must contain source -> text; per-language failures are the translator's to
// absorb.
type Translator interface {
	Translate(ctx context.Context, text, source string, targets []string) (map[string]string, error)
}

// Options tunes hub behavior.
type Options struct {
	// RejectUnknownRoom answers send-message to an unknown room with an error
	// event instead of dropping it silently.
	RejectUnknownRoom bool
	// RoomIdleTTL enables eviction of empty rooms idle for this long. Zero disables it.
	RoomIdleTTL time.Duration
	// ReapInterval is how often eviction runs. Defaults to one minute.
	ReapInterval time.Duration
}

// Hub is the realtime gateway: it routes client commands to the registry and
// the translator and fans the resulting events out to room subscribers.
//
// Each registered client gets its own goroutine, so commands from one
// connection are processed in order while different connections proceed
// concurrently. Registry mutations that produce broadcasts happen under mu,
// which keeps every room's broadcast order equal to its history order.
type Hub struct {
	registry   *Registry
	translator Translator
	log        *zerolog.Logger
	opts       Options

	register chan *Client
	done     chan struct{}

	mu          sync.Mutex
	clients     map[*Client]struct{}
	subscribers map[string]map[*Client]struct{}
	holders     map[string]map[string]int // room -> user -> holding connections
}

// NewHub creates a hub over registry. A nil logger discards output.
func NewHub(registry *Registry, translator Translator, logger *zerolog.Logger, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Minute
	}
	return &Hub{
		registry:    registry,
		translator:  translator,
		log:         logger,
		opts:        opts,
		register:    make(chan *Client),
		done:        make(chan struct{}),
		clients:     make(map[*Client]struct{}),
		subscribers: make(map[string]map[*Client]struct{}),
		holders:     make(map[string]map[string]int),
	}
}

// Registry returns the registry the hub operates on.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run accepts clients until ctx is cancelled. Client goroutines stop with it
// and perform their disconnect cleanup.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var reap <-chan time.Time
	if h.opts.RoomIdleTTL > 0 {
		ticker := time.NewTicker(h.opts.ReapInterval)
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			metrics.Connections.Inc()
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
			go h.serve(ctx, c)
		case <-reap:
			h.reapRooms()
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient hands c to the hub. Returns false if the hub has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient signals that c's connection is gone. Cleanup runs after
// the command in progress, if any, completes; wait on c.Done() to observe it.
func (h *Hub) UnregisterClient(c *Client) {
	c.stop()
}

func (h *Hub) serve(ctx context.Context, c *Client) {
	defer h.disconnect(c)

	for {
		select {
		case cmd := <-c.Commands:
			if cmd != nil {
				h.handle(c, cmd)
			}
		case <-c.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("client_id", c.ID).Stringer("command", cmd.Kind).Msg("command handler panicked")
			h.reply(c, errorEvent(cmd.Room, ErrCodeInternal, "Failed to process request"))
		}
	}()

	switch cmd.Kind {
	case CommandJoinRoom:
		h.join(c, cmd.Room, cmd.User)
	case CommandLeaveRoom:
		h.leave(c, cmd.Room, cmd.UserID)
	case CommandSendMessage:
		h.sendMessage(c, cmd.Room, cmd.User, cmd.Text)
	default:
		h.reply(c, errorEvent(cmd.Room, ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) join(c *Client, roomID string, user User) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.registry.EnsureRoom(roomID)
	added := h.registry.AddUser(roomID, user)
	h.subscribe(c, roomID)
	if c.hold(roomID, user.ID) {
		h.incHolders(roomID, user.ID)
	}

	snapshot, ok := h.registry.GetRoom(roomID)
	if !ok {
		snapshot = Room{ID: roomID, Name: DefaultRoomName(roomID)}
	}
	h.deliver(c, &Event{Kind: EventRoomData, Room: roomID, RoomData: &snapshot})

	if added {
		h.broadcast(roomID, &Event{Kind: EventUserJoined, Room: roomID, User: user}, c)
	}
	h.log.Info().Str("client_id", c.ID).Str("room", roomID).Str("user_id", user.ID).Str("language", user.Language).Bool("new_member", added).Msg("user joined room")
}

func (h *Hub) leave(c *Client, roomID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := h.registry.RemoveUser(roomID, userID)
	h.dropHolders(roomID, userID)
	if _, stillHolding := c.held[roomID]; !stillHolding {
		h.unsubscribe(c, roomID)
	}

	if removed {
		h.broadcast(roomID, &Event{Kind: EventUserLeft, Room: roomID, UserID: userID}, c)
	}
	h.log.Info().Str("client_id", c.ID).Str("room", roomID).Str("user_id", userID).Bool("was_member", removed).Msg("user left room")
}

func (h *Hub) sendMessage(c *Client, roomID string, from User, text string) {
	languages, ok := h.registry.Languages(roomID)
	if !ok {
		h.log.Debug().Str("client_id", c.ID).Str("room", roomID).Msg("message to unknown room")
		if h.opts.RejectUnknownRoom {
			h.reply(c, errorEvent(roomID, ErrCodeRoomNotFound, "Room not found"))
		}
		return
	}

	translations, err := h.translator.Translate(context.Background(), text, from.Language, languages)
	if err != nil {
		h.log.Error().Err(err).Str("client_id", c.ID).Str("room", roomID).Msg("failed to translate message")
		h.reply(c, errorEvent(roomID, ErrCodeSendFailed, "Failed to send message"))
		return
	}
	msg := newChatMessage(uuid.NewString(), from, text, translations, time.Now().UnixMilli())

	h.mu.Lock()
	defer h.mu.Unlock()

	// The room may have been reaped while translating.
	if !h.registry.AppendMessage(roomID, msg) {
		h.log.Warn().Str("room", roomID).Str("message_id", msg.ID).Msg("room vanished before message was stored")
		return
	}
	h.broadcast(roomID, &Event{Kind: EventNewMessage, Room: roomID, Message: msg}, nil)
	metrics.MessagesSent.Inc()
}

func (h *Hub) disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range c.rooms {
		h.unsubscribe(c, roomID)
	}

	for roomID, users := range c.held {
		for userID := range users {
			if h.decHolders(roomID, userID) > 0 {
				continue
			}
			if h.registry.RemoveUser(roomID, userID) {
				h.broadcast(roomID, &Event{Kind: EventUserLeft, Room: roomID, UserID: userID}, c)
				h.log.Info().Str("client_id", c.ID).Str("room", roomID).Str("user_id", userID).Msg("user dropped on disconnect")
			}
		}
	}
	clear(c.held)

	delete(h.clients, c)
	close(c.Events)
	close(c.done)
	metrics.Connections.Dec()
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
}

func (h *Hub) reapRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	evicted := h.registry.Reap(h.opts.RoomIdleTTL, func(roomID string) bool {
		return len(h.subscribers[roomID]) > 0 || len(h.holders[roomID]) > 0
	})
	if len(evicted) > 0 {
		h.log.Info().Strs("rooms", evicted).Msg("evicted idle rooms")
	}
}

// subscribe, unsubscribe, broadcast and the holder helpers require h.mu.

func (h *Hub) subscribe(c *Client, roomID string) {
	subs, ok := h.subscribers[roomID]
	if !ok {
		subs = make(map[*Client]struct{})
		h.subscribers[roomID] = subs
	}
	subs[c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, roomID string) {
	if subs, ok := h.subscribers[roomID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.subscribers, roomID)
		}
	}
	delete(c.rooms, roomID)
}

func (h *Hub) broadcast(roomID string, ev *Event, exclude *Client) {
	for c := range h.subscribers[roomID] {
		if c == exclude {
			continue
		}
		h.deliver(c, ev)
	}
}

func (h *Hub) incHolders(roomID, userID string) {
	users, ok := h.holders[roomID]
	if !ok {
		users = make(map[string]int)
		h.holders[roomID] = users
	}
	users[userID]++
}

// decHolders returns the remaining number of connections holding the pair.
func (h *Hub) decHolders(roomID, userID string) int {
	users, ok := h.holders[roomID]
	if !ok {
		return 0
	}
	users[userID]--
	left := users[userID]
	if left <= 0 {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.holders, roomID)
		}
		return 0
	}
	return left
}

// dropHolders forgets the pair on every connection, used on explicit leave.
func (h *Hub) dropHolders(roomID, userID string) {
	if _, ok := h.holders[roomID][userID]; !ok {
		return
	}
	for c := range h.clients {
		c.release(roomID, userID)
	}
	delete(h.holders[roomID], userID)
	if len(h.holders[roomID]) == 0 {
		delete(h.holders, roomID)
	}
}

// deliver never blocks: a full buffer drops the event.
func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		metrics.EventsDropped.Inc()
		h.log.Warn().Str("client_id", c.ID).Str("room", ev.Room).Stringer("kind", ev.Kind).Msg("client buffer full, dropping event")
	}
}

// reply sends an event to one client only.
func (h *Hub) reply(c *Client, ev *Event) {
	h.deliver(c, ev)
}
