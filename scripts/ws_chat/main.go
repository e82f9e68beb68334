package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/babelchat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	lang := flag.String("lang", "en", "display language")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	user := proto.User{ID: uuid.NewString(), Name: *name, Language: *lang}
	if err := send(ctx, conn, proto.EventJoinRoom, proto.JoinRoomData{RoomID: *room, User: user}); err != nil {
		return err
	}

	fmt.Printf("Connected to %s as %s (%s) in room %s\n", *addr, *name, *lang, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn, user)
	}()

	writeLoop(ctx, conn, *room, user)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func send(ctx context.Context, conn *websocket.Conn, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Event: event, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

// readLoop prints incoming events, showing each message in the user's language.
func readLoop(ctx context.Context, conn *websocket.Conn, me proto.User) {
	for {
		var frame proto.Inbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch frame.Event {
		case proto.EventRoomData:
			var data proto.RoomData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				log.Printf("unmarshal room-data: %v", err)
				continue
			}
			fmt.Printf("[%s] %d online\n", data.Name, len(data.Users))
			for _, msg := range data.Messages {
				printMessage(msg, me.Language)
			}
		case proto.EventNewMessage:
			var msg proto.ChatMessage
			if err := json.Unmarshal(frame.Data, &msg); err != nil {
				log.Printf("unmarshal new-message: %v", err)
				continue
			}
			printMessage(msg, me.Language)
		case proto.EventUserJoined:
			var u proto.User
			if err := json.Unmarshal(frame.Data, &u); err != nil {
				log.Printf("unmarshal user-joined: %v", err)
				continue
			}
			fmt.Printf("* %s joined (%s)\n", u.Name, u.Language)
		case proto.EventUserLeft:
			var userID string
			if err := json.Unmarshal(frame.Data, &userID); err != nil {
				log.Printf("unmarshal user-left: %v", err)
				continue
			}
			fmt.Printf("* %s left\n", userID)
		case proto.EventError:
			var perr proto.Error
			if err := json.Unmarshal(frame.Data, &perr); err != nil {
				log.Printf("unmarshal error: %v", err)
				continue
			}
			fmt.Printf("! %s\n", perr.Message)
		default:
			fmt.Printf("event=%s data=%s\n", frame.Event, string(frame.Data))
		}
	}
}

func printMessage(msg proto.ChatMessage, lang string) {
	text, ok := msg.Translations[lang]
	if !ok {
		text = msg.OriginalText
	}
	fmt.Printf("%s: %s\n", msg.UserName, text)
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room string, me proto.User) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				_ = send(ctx, conn, proto.EventLeaveRoom, proto.LeaveRoomData{RoomID: room, UserID: me.ID})
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := send(ctx, conn, proto.EventSendMessage, proto.SendMessageData{RoomID: room, Message: text, User: me}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
