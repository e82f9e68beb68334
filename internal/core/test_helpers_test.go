package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, wait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func startHub(t *testing.T, translator Translator, opts Options) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(NewRegistry(), translator, nil, opts)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()

	c := NewClient(id, 0)
	if !hub.RegisterClient(c) {
		t.Fatalf("hub refused client %s", id)
	}
	return c
}

func joinCmd(room string, u User) *Command {
	return &Command{Kind: CommandJoinRoom, Room: room, User: u}
}

func sendCmd(room string, u User, text string) *Command {
	return &Command{Kind: CommandSendMessage, Room: room, User: u, Text: text}
}

type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, string, string, []string) (map[string]string, error) {
	return nil, errors.New("provider unavailable")
}

type panickingTranslator struct{}

func (panickingTranslator) Translate(context.Context, string, string, []string) (map[string]string, error) {
	panic("translator exploded")
}
