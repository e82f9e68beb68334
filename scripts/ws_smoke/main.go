package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/babelchat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "tester", "display name")
	lang := flag.String("lang", "en", "display language")
	room := flag.String("room", "general", "room id")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
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
	if err := send(ctx, conn, proto.EventSendMessage, proto.SendMessageData{RoomID: *room, Message: *text, User: user}); err != nil {
		return err
	}

	for {
		var frame proto.Inbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received event=%s\n", frame.Event)

		switch frame.Event {
		case proto.EventRoomData:
			var data proto.RoomData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				return fmt.Errorf("unmarshal room-data: %w", err)
			}
			fmt.Printf("Room: id=%s name=%q users=%d messages=%d\n", data.ID, data.Name, len(data.Users), len(data.Messages))
		case proto.EventNewMessage:
			var msg proto.ChatMessage
			if err := json.Unmarshal(frame.Data, &msg); err != nil {
				fmt.Printf("Raw data: %s\n", string(frame.Data))
				return fmt.Errorf("unmarshal new-message: %w", err)
			}
			fmt.Printf("Message: user=%s text=%q ts=%d\n", msg.UserName, msg.OriginalText, msg.Timestamp)
			for code, translated := range msg.Translations {
				fmt.Printf("  %s: %s\n", code, translated)
			}
			return nil
		case proto.EventError:
			var perr proto.Error
			if err := json.Unmarshal(frame.Data, &perr); err == nil {
				return fmt.Errorf("server error: %s", perr.Message)
			}
		}
	}
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
