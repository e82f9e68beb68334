package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vovakirdan/babelchat/internal/metrics"
	"github.com/vovakirdan/babelchat/internal/translate"
)

var (
	alice = User{ID: "u-alice", Name: "alice", Language: "en"}
	bob   = User{ID: "u-bob", Name: "bob", Language: "es"}
	carol = User{ID: "u-carol", Name: "carol", Language: "fr"}
)

func TestHubJoinCreatesRoomAndSendsSnapshot(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")

	a.Commands <- joinCmd("lobby", alice)

	ev := mustEvent(t, a.Events, EventRoomData)
	if ev.RoomData == nil {
		t.Fatalf("room-data without snapshot: %+v", ev)
	}
	room := ev.RoomData
	if room.ID != "lobby" || room.Name != "Chat Room lobby" {
		t.Fatalf("unexpected room identity: %+v", room)
	}
	if len(room.Users) != 1 || room.Users[0] != alice || len(room.Messages) != 0 {
		t.Fatalf("unexpected snapshot: %+v", room)
	}
}

func TestHubJoinBroadcastAndTranslatedMessage(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")
	b := connect(t, hub, "conn-b")

	a.Commands <- joinCmd("general", alice)
	mustEvent(t, a.Events, EventRoomData)

	b.Commands <- joinCmd("general", bob)
	snap := mustEvent(t, b.Events, EventRoomData)
	if len(snap.RoomData.Users) != 2 {
		t.Fatalf("bob should see both members, got %+v", snap.RoomData.Users)
	}

	joined := mustEvent(t, a.Events, EventUserJoined)
	if joined.User != bob || joined.Room != "general" {
		t.Fatalf("unexpected join event: %+v", joined)
	}

	a.Commands <- sendCmd("general", alice, "Hello")

	for _, c := range []*Client{a, b} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		msg := ev.Message
		if msg.OriginalText != "Hello" || msg.UserID != alice.ID || msg.UserName != "alice" {
			t.Fatalf("unexpected message for %s: %+v", c.ID, msg)
		}
		if msg.Translations["en"] != "Hello" || msg.Translations["es"] != "[es] Hello" || len(msg.Translations) != 2 {
			t.Fatalf("unexpected translations for %s: %+v", c.ID, msg.Translations)
		}
		if msg.ID == "" || msg.Timestamp == 0 {
			t.Fatalf("message id/timestamp not set: %+v", msg)
		}
	}

	room, ok := hub.Registry().GetRoom("general")
	if !ok || len(room.Messages) != 1 {
		t.Fatalf("expected one message in history, got %+v", room)
	}
}

func TestHubSenderLanguageAlwaysPresent(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")

	a.Commands <- joinCmd("general", alice)
	mustEvent(t, a.Events, EventRoomData)

	// Carol never joined; her language is still the source entry.
	a.Commands <- sendCmd("general", carol, "Bonjour")
	ev := mustEvent(t, a.Events, EventNewMessage)
	if ev.Message.Translations["fr"] != "Bonjour" || ev.Message.Translations["en"] != "[en] Bonjour" {
		t.Fatalf("unexpected translations: %+v", ev.Message.Translations)
	}
}

func TestHubLeave(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")
	b := connect(t, hub, "conn-b")

	a.Commands <- joinCmd("general", alice)
	mustEvent(t, a.Events, EventRoomData)
	b.Commands <- joinCmd("general", bob)
	mustEvent(t, a.Events, EventUserJoined)
	mustEvent(t, b.Events, EventRoomData)

	b.Commands <- &Command{Kind: CommandLeaveRoom, Room: "general", UserID: bob.ID}
	left := mustEvent(t, a.Events, EventUserLeft)
	if left.UserID != bob.ID || left.Room != "general" {
		t.Fatalf("unexpected leave event: %+v", left)
	}

	room, _ := hub.Registry().GetRoom("general")
	if len(room.Users) != 1 || room.Users[0].ID != alice.ID {
		t.Fatalf("bob still a member: %+v", room.Users)
	}

	// Bob is unsubscribed and no longer receives room traffic.
	a.Commands <- sendCmd("general", alice, "still there?")
	mustEvent(t, a.Events, EventNewMessage)
	mustNoEvent(t, b.Events, EventNewMessage, 150*time.Millisecond)
}

func TestHubLeaveUnknownRoomIsNoop(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")

	a.Commands <- &Command{Kind: CommandLeaveRoom, Room: "ghost", UserID: alice.ID}
	mustNoEvent(t, a.Events, EventError, 150*time.Millisecond)

	if _, ok := hub.Registry().GetRoom("ghost"); ok {
		t.Fatal("leave must not create rooms")
	}
}

func TestHubDisconnectCleansEveryRoom(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")
	b := connect(t, hub, "conn-b")
	c := connect(t, hub, "conn-c")

	a.Commands <- joinCmd("room-1", alice)
	b.Commands <- joinCmd("room-2", bob)
	mustEvent(t, a.Events, EventRoomData)
	mustEvent(t, b.Events, EventRoomData)

	c.Commands <- joinCmd("room-1", carol)
	c.Commands <- joinCmd("room-2", carol)
	mustEvent(t, a.Events, EventUserJoined)
	mustEvent(t, b.Events, EventUserJoined)

	hub.UnregisterClient(c)
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect cleanup did not finish")
	}

	for _, tc := range []struct {
		client *Client
		room   string
	}{{a, "room-1"}, {b, "room-2"}} {
		ev := mustEvent(t, tc.client.Events, EventUserLeft)
		if ev.UserID != carol.ID || ev.Room != tc.room {
			t.Fatalf("unexpected leave event in %s: %+v", tc.room, ev)
		}
		room, _ := hub.Registry().GetRoom(tc.room)
		for _, u := range room.Users {
			if u.ID == carol.ID {
				t.Fatalf("carol still in %s", tc.room)
			}
		}
	}

	// Drains the buffered events; terminates only because the channel is closed.
	for range c.Events {
	}
}

func TestHubSharedUserSurvivesUntilLastConnection(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	observer := connect(t, hub, "conn-observer")
	tab1 := connect(t, hub, "conn-tab1")
	tab2 := connect(t, hub, "conn-tab2")

	observer.Commands <- joinCmd("general", bob)
	mustEvent(t, observer.Events, EventRoomData)

	tab1.Commands <- joinCmd("general", alice)
	mustEvent(t, tab1.Events, EventRoomData)
	mustEvent(t, observer.Events, EventUserJoined)

	tab2.Commands <- joinCmd("general", alice)
	snap := mustEvent(t, tab2.Events, EventRoomData)
	if len(snap.RoomData.Users) != 2 {
		t.Fatalf("duplicate join must not duplicate the user: %+v", snap.RoomData.Users)
	}
	mustNoEvent(t, observer.Events, EventUserJoined, 100*time.Millisecond)

	hub.UnregisterClient(tab1)
	<-tab1.Done()
	mustNoEvent(t, observer.Events, EventUserLeft, 100*time.Millisecond)

	hub.UnregisterClient(tab2)
	<-tab2.Done()
	ev := mustEvent(t, observer.Events, EventUserLeft)
	if ev.UserID != alice.ID {
		t.Fatalf("unexpected leave event: %+v", ev)
	}
}

func TestHubSendToUnknownRoomIsIgnored(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	a := connect(t, hub, "conn-a")

	a.Commands <- sendCmd("nowhere", alice, "hello?")
	mustNoEvent(t, a.Events, EventError, 150*time.Millisecond)

	if _, ok := hub.Registry().GetRoom("nowhere"); ok {
		t.Fatal("send-message must not create rooms")
	}
}

func TestHubSendToUnknownRoomRejected(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{RejectUnknownRoom: true})
	a := connect(t, hub, "conn-a")

	a.Commands <- sendCmd("nowhere", alice, "hello?")
	ev := mustEvent(t, a.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found error, got %+v", ev)
	}
}

func TestHubTranslationFailureOnlyNotifiesSender(t *testing.T) {
	hub := startHub(t, failingTranslator{}, Options{})
	a := connect(t, hub, "conn-a")
	b := connect(t, hub, "conn-b")

	a.Commands <- joinCmd("general", alice)
	mustEvent(t, a.Events, EventRoomData)
	b.Commands <- joinCmd("general", bob)
	mustEvent(t, a.Events, EventUserJoined)

	a.Commands <- sendCmd("general", alice, "Hello")
	ev := mustEvent(t, a.Events, EventError)
	if ev.Error == nil || ev.Error.Message != "Failed to send message" {
		t.Fatalf("unexpected error event: %+v", ev)
	}
	mustNoEvent(t, b.Events, EventNewMessage, 150*time.Millisecond)
	mustNoEvent(t, b.Events, EventError, 10*time.Millisecond)

	room, _ := hub.Registry().GetRoom("general")
	if len(room.Messages) != 0 {
		t.Fatalf("failed send must not touch history: %+v", room.Messages)
	}
}

func TestHubRecoversFromHandlerPanic(t *testing.T) {
	hub := startHub(t, panickingTranslator{}, Options{})
	a := connect(t, hub, "conn-a")

	a.Commands <- joinCmd("general", alice)
	mustEvent(t, a.Events, EventRoomData)

	a.Commands <- sendCmd("general", alice, "boom")
	ev := mustEvent(t, a.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeInternal {
		t.Fatalf("expected internal error, got %+v", ev)
	}

	// The connection keeps working.
	a.Commands <- &Command{Kind: CommandLeaveRoom, Room: "general", UserID: alice.ID}
	a.Commands <- joinCmd("general", alice)
	mustEvent(t, a.Events, EventRoomData)
}

func TestHubReapsIdleEmptyRooms(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{RoomIdleTTL: 20 * time.Millisecond, ReapInterval: 10 * time.Millisecond})
	a := connect(t, hub, "conn-a")

	if _, err := hub.Registry().CreateRoom("empty", "Empty"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	a.Commands <- joinCmd("busy", alice)
	mustEvent(t, a.Events, EventRoomData)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := hub.Registry().GetRoom("empty"); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("idle room was not reaped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, ok := hub.Registry().GetRoom("busy"); !ok {
		t.Fatal("occupied room must survive reaping")
	}
}

func TestHubRegisterAfterStop(t *testing.T) {
	hub := NewHub(NewRegistry(), translate.NewStub(), nil, Options{})
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if hub.RegisterClient(NewClient("late", 0)) {
		t.Fatal("stopped hub accepted a client")
	}
}

func TestHubDropsEventsForFullBuffer(t *testing.T) {
	hub := startHub(t, translate.NewStub(), Options{})
	slow := NewClient("conn-slow", 1)
	if !hub.RegisterClient(slow) {
		t.Fatal("hub refused slow client")
	}
	fast := connect(t, hub, "conn-fast")
	dropped := testutil.ToFloat64(metrics.EventsDropped)

	// room-data fills the slow client's only slot and is never read.
	slow.Commands <- joinCmd("general", alice)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if room, ok := hub.Registry().GetRoom("general"); ok && len(room.Users) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("slow client never joined")
		}
		time.Sleep(10 * time.Millisecond)
	}

	fast.Commands <- joinCmd("general", bob)
	mustEvent(t, fast.Events, EventRoomData)
	fast.Commands <- sendCmd("general", bob, "Hola")
	mustEvent(t, fast.Events, EventNewMessage)

	if got := testutil.ToFloat64(metrics.EventsDropped) - dropped; got < 1 {
		t.Fatalf("expected dropped events to be counted, got %v", got)
	}
	if len(slow.Events) != 1 {
		t.Fatalf("slow buffer should hold only room-data, has %d", len(slow.Events))
	}
	if ev := <-slow.Events; ev.Kind != EventRoomData {
		t.Fatalf("unexpected buffered event %v", ev.Kind)
	}
}
