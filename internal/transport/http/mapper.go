package http

import (
	"time"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/proto"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/store"
)

func messageInput(data proto.SendMessageData) core.MessageInput {
	return core.MessageInput{
		RoomCode: data.RoomCode,
		Type:     store.MessageType(data.Type),
		Content:  data.Content,
		Meta:     data.Meta,
		Sender:   data.Sender,
	}
}

func toProtoMessage(msg *store.Message) proto.Message {
	return proto.Message{
		ID:        msg.ID,
		RoomCode:  msg.RoomCode,
		Sender:    msg.Sender,
		Type:      string(msg.Type),
		Content:   msg.Content,
		Meta:      msg.Meta,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339),
	}
}

func toProtoMessages(messages []*store.Message) []proto.Message {
	out := make([]proto.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, toProtoMessage(msg))
	}
	return out
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data:  toProtoMessage(event.Message),
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserJoined,
			Data: proto.UserJoined{
				ID:          event.ClientID,
				DisplayName: event.DisplayName,
			},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserLeft,
			Data: proto.UserLeft{
				ID: event.ClientID,
			},
		}
	case core.EventSignal:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventSignal,
			Data: proto.Signal{
				From:   event.From,
				Signal: event.Signal,
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
