package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/core"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/proto"
	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the session
// protocol handler.
type WSHandler struct {
	sessions *core.SessionHandler
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(sessions *core.SessionHandler, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{sessions: sessions, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(utils.NewConnectionID())
	h.sessions.Connect(client)
	defer h.sessions.Disconnect(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop consumes inbound envelopes and dispatches them to the
// session handler. Events that expect an acknowledgement get exactly
// one ack envelope carrying the inbound ID; signal gets none.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeJoin:
			var data proto.JoinData
			decodePayload(inbound.Data, &data)
			result := h.sessions.Join(ctx, client, data.RoomCode, data.DisplayName)
			ack := proto.JoinAck{OK: result.OK, Error: result.Error, Recent: toProtoMessages(result.Recent)}
			if err := wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeAck, ID: inbound.ID, Data: ack}); err != nil {
				return err
			}

		case proto.InboundTypeMsg:
			var data proto.SendMessageData
			decodePayload(inbound.Data, &data)
			result := h.sessions.SendMessage(ctx, client, messageInput(data))
			ack := proto.MessageAck{OK: result.OK, Error: result.Error}
			if result.Message != nil {
				msg := toProtoMessage(result.Message)
				ack.Message = &msg
			}
			if err := wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeAck, ID: inbound.ID, Data: ack}); err != nil {
				return err
			}

		case proto.InboundTypeSignal:
			var data proto.SignalData
			decodePayload(inbound.Data, &data)
			h.sessions.Signal(client, data.RoomCode, data.To, data.Signal)

		default:
			outbound := proto.Outbound{
				Type:  proto.OutboundTypeError,
				ID:    inbound.ID,
				Error: &proto.Error{Code: "invalid_message", Msg: "unknown message type"},
			}
			if err := wsjson.Write(ctx, conn, outbound); err != nil {
				return err
			}
		}
	}
}

// decodePayload fills v from a data field that may be absent or
// malformed. The zero payload flows into the session handler, whose
// validation produces the failure ack.
func decodePayload(raw json.RawMessage, v any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
