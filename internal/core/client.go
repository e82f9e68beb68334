package core

import "sync"

// DefaultClientBuffer is the event buffer size used when none is given.
const DefaultClientBuffer = 32

// Client is one realtime connection as seen by the core layer. A connection
// is not a user: it may join several rooms, each under some user id.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Guarded by Hub.mu.
	rooms map[string]struct{}
	held  map[string]map[string]struct{}
}

// NewClient constructs a client with initialized channels. buffer bounds the
// number of undelivered events; a full buffer drops new events.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		rooms:    make(map[string]struct{}),
		held:     make(map[string]map[string]struct{}),
	}
}

// Done is closed once the hub has finished disconnect cleanup for the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) stop() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// hold records that the client is responsible for userID in roomID.
// Returns true if the pair is new for this client.
func (c *Client) hold(roomID, userID string) bool {
	users, ok := c.held[roomID]
	if !ok {
		users = make(map[string]struct{})
		c.held[roomID] = users
	}
	if _, exists := users[userID]; exists {
		return false
	}
	users[userID] = struct{}{}
	return true
}

// release drops the pair. Returns true if the client held it.
func (c *Client) release(roomID, userID string) bool {
	users, ok := c.held[roomID]
	if !ok {
		return false
	}
	if _, exists := users[userID]; !exists {
		return false
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(c.held, roomID)
	}
	return true
}
