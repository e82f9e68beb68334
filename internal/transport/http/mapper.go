package http

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/vovakirdan/babelchat/internal/core"
	"github.com/vovakirdan/babelchat/internal/proto"
)

// inboundToCommand decodes and validates a client frame. A non-nil proto.Error
// is answered to the client without closing the connection.
func inboundToCommand(v *validator.Validate, inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Event {
	case proto.EventJoinRoom:
		var join proto.JoinRoomData
		if err := decode(inbound, &join); err != nil {
			return nil, err
		}
		join.User.Name = strings.TrimSpace(join.User.Name)
		if err := validate(v, inbound.Event, &join); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.RoomID,
			User: userFromProto(join.User),
		}, nil
	case proto.EventLeaveRoom:
		var leave proto.LeaveRoomData
		if err := decode(inbound, &leave); err != nil {
			return nil, err
		}
		if err := validate(v, inbound.Event, &leave); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind:   core.CommandLeaveRoom,
			Room:   leave.RoomID,
			UserID: leave.UserID,
		}, nil
	case proto.EventSendMessage:
		var msg proto.SendMessageData
		if err := decode(inbound, &msg); err != nil {
			return nil, err
		}
		msg.Message = strings.TrimSpace(msg.Message)
		msg.User.Name = strings.TrimSpace(msg.User.Name)
		if err := validate(v, inbound.Event, &msg); err != nil {
			return nil, err
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Room: msg.RoomID,
			User: userFromProto(msg.User),
			Text: msg.Message,
		}, nil
	default:
		return nil, &proto.Error{Message: "unknown event " + inbound.Event}
	}
}

func decode(inbound proto.Inbound, dst any) *proto.Error {
	if err := json.Unmarshal(inbound.Data, dst); err != nil {
		return &proto.Error{Message: "invalid " + inbound.Event + " payload"}
	}
	return nil
}

func validate(v *validator.Validate, event string, payload any) *proto.Error {
	if err := v.Struct(payload); err != nil {
		return &proto.Error{Message: "invalid " + event + ": " + describeValidation(err)}
	}
	return nil
}

func userFromProto(u proto.User) core.User {
	return core.User{
		ID:       u.ID,
		Name:     u.Name,
		Language: strings.ToLower(u.Language),
	}
}

func userToProto(u core.User) proto.User {
	return proto.User{ID: u.ID, Name: u.Name, Language: u.Language}
}

func messageToProto(m core.ChatMessage) proto.ChatMessage {
	return proto.ChatMessage{
		ID:           m.ID,
		UserID:       m.UserID,
		UserName:     m.UserName,
		OriginalText: m.OriginalText,
		Translations: m.Translations,
		Timestamp:    m.Timestamp,
	}
}

func roomToProto(r core.Room) proto.RoomData {
	return proto.RoomData{
		ID:       r.ID,
		Name:     r.Name,
		Messages: lo.Map(r.Messages, func(m core.ChatMessage, _ int) proto.ChatMessage { return messageToProto(m) }),
		Users:    lo.Map(r.Users, func(u core.User, _ int) proto.User { return userToProto(u) }),
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomData:
		room := core.Room{ID: event.Room}
		if event.RoomData != nil {
			room = *event.RoomData
		}
		return proto.Outbound{Event: proto.EventRoomData, Data: roomToProto(room)}
	case core.EventUserJoined:
		return proto.Outbound{Event: proto.EventUserJoined, Data: userToProto(event.User)}
	case core.EventUserLeft:
		return proto.Outbound{Event: proto.EventUserLeft, Data: event.UserID}
	case core.EventNewMessage:
		return proto.Outbound{Event: proto.EventNewMessage, Data: messageToProto(event.Message)}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Event: proto.EventError, Data: proto.Error{Message: "unknown error"}}
		}
		return proto.Outbound{Event: proto.EventError, Data: proto.Error{Message: event.Error.Message}}
	default:
		return proto.Outbound{Event: proto.EventError, Data: proto.Error{Message: "unknown event"}}
	}
}
