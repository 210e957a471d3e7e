package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Dayvhiid/HMS-Telemedicine-API/internal/proto"
)

type outboundEnvelope struct {
	Type  string          `json:"type"`
	ID    uint64          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

func dialWS(t *testing.T, ctx context.Context, s *testServer) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(s.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })

	return conn
}

func sendEnvelope(t *testing.T, ctx context.Context, conn *websocket.Conn, id uint64, msgType string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{ID: id, Type: msgType, Data: data}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readUntil reads envelopes until match returns true, failing the test
// if none arrives within a small bound.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(outboundEnvelope) bool) outboundEnvelope {
	t.Helper()

	for i := 0; i < 10; i++ {
		var env outboundEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("read envelope: %v", err)
		}
		if match(env) {
			return env
		}
	}
	t.Fatal("expected envelope not received")
	return outboundEnvelope{}
}

func isAck(id uint64) func(outboundEnvelope) bool {
	return func(env outboundEnvelope) bool {
		return env.Type == proto.OutboundTypeAck && env.ID == id
	}
}

func isEvent(name string) func(outboundEnvelope) bool {
	return func(env outboundEnvelope) bool {
		return env.Type == proto.OutboundTypeEvent && env.Event == name
	}
}

func joinRoom(t *testing.T, ctx context.Context, conn *websocket.Conn, room, name string) proto.JoinAck {
	t.Helper()

	sendEnvelope(t, ctx, conn, 1, proto.InboundTypeJoin, proto.JoinData{RoomCode: room, DisplayName: name})
	env := readUntil(t, ctx, conn, isAck(1))

	var ack proto.JoinAck
	if err := json.Unmarshal(env.Data, &ack); err != nil {
		t.Fatalf("unmarshal join ack: %v", err)
	}
	return ack
}

func TestWebSocketJoinAndMessage(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, s)
	connB := dialWS(t, ctx, s)

	if ack := joinRoom(t, ctx, connA, "room-abc-1", "alice"); !ack.OK {
		t.Fatalf("join A failed: %s", ack.Error)
	}
	if ack := joinRoom(t, ctx, connB, "room-abc-1", "bob"); !ack.OK {
		t.Fatalf("join B failed: %s", ack.Error)
	}

	// A is notified of B joining.
	env := readUntil(t, ctx, connA, isEvent(proto.EventUserJoined))
	var joined proto.UserJoined
	if err := json.Unmarshal(env.Data, &joined); err != nil {
		t.Fatalf("unmarshal user-joined: %v", err)
	}
	if joined.DisplayName != "bob" || joined.ID == "" {
		t.Errorf("unexpected user-joined payload: %+v", joined)
	}

	// A sends a message; the ack carries the persisted record.
	sendEnvelope(t, ctx, connA, 2, proto.InboundTypeMsg, proto.SendMessageData{RoomCode: "room-abc-1", Content: "hi there"})
	ackEnv := readUntil(t, ctx, connA, isAck(2))
	var ack proto.MessageAck
	if err := json.Unmarshal(ackEnv.Data, &ack); err != nil {
		t.Fatalf("unmarshal message ack: %v", err)
	}
	if !ack.OK || ack.Message == nil || ack.Message.ID == 0 {
		t.Fatalf("unexpected message ack: %+v", ack)
	}
	if ack.Message.Sender != "alice" {
		t.Errorf("expected sender alice, got %s", ack.Message.Sender)
	}
	// Timestamps use the same format as the history API.
	if _, err := time.Parse(time.RFC3339, ack.Message.CreatedAt); err != nil {
		t.Errorf("createdAt not RFC3339: %q", ack.Message.CreatedAt)
	}

	// Both connections receive the broadcast, sender included.
	for name, conn := range map[string]*websocket.Conn{"A": connA, "B": connB} {
		env := readUntil(t, ctx, conn, isEvent(proto.EventNewMessage))
		var msg proto.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			t.Fatalf("unmarshal new-message: %v", err)
		}
		if msg.Content != "hi there" || msg.ID != ack.Message.ID {
			t.Errorf("conn %s: unexpected new-message: %+v", name, msg)
		}
	}
}

func TestWebSocketJoinReturnsRecent(t *testing.T) {
	s := newTestServer(t, nil)
	seedMessages(t, s, "room-abc-1", 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, s)
	ack := joinRoom(t, ctx, conn, "room-abc-1", "alice")
	if !ack.OK {
		t.Fatalf("join failed: %s", ack.Error)
	}
	if len(ack.Recent) != 3 {
		t.Fatalf("expected 3 recent messages, got %d", len(ack.Recent))
	}
	if ack.Recent[0].Content != "msg-0" || ack.Recent[2].Content != "msg-2" {
		t.Errorf("recent not chronological: %+v", ack.Recent)
	}
}

// The upgrade and the REST API are served by the same handler; the
// WebSocket endpoint must hijack the connection while gin keeps
// handling everything else.
func TestServerServesAPIAndWebSocket(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, s)
	if ack := joinRoom(t, ctx, conn, "room-abc-1", "alice"); !ack.OK {
		t.Fatalf("join over upgraded connection failed: %s", ack.Error)
	}

	resp, err := stdhttp.Get(s.ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Errorf("expected 200 from /health, got %d", resp.StatusCode)
	}
}

// A missing or malformed data field still gets a validation ack and
// leaves the connection usable.
func TestWebSocketMissingPayloadAcked(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, s)

	if err := wsjson.Write(ctx, conn, proto.Inbound{ID: 3, Type: proto.InboundTypeJoin}); err != nil {
		t.Fatalf("write join without data: %v", err)
	}
	env := readUntil(t, ctx, conn, isAck(3))
	var joinAck proto.JoinAck
	if err := json.Unmarshal(env.Data, &joinAck); err != nil {
		t.Fatalf("unmarshal join ack: %v", err)
	}
	if joinAck.OK || joinAck.Error != "roomCode required" {
		t.Errorf("unexpected join ack: %+v", joinAck)
	}

	sendEnvelope(t, ctx, conn, 4, proto.InboundTypeMsg, 42)
	env = readUntil(t, ctx, conn, isAck(4))
	var msgAck proto.MessageAck
	if err := json.Unmarshal(env.Data, &msgAck); err != nil {
		t.Fatalf("unmarshal message ack: %v", err)
	}
	if msgAck.OK || msgAck.Error != "roomCode & content required" {
		t.Errorf("unexpected message ack: %+v", msgAck)
	}

	// Still alive: a proper join succeeds afterwards.
	if ack := joinRoom(t, ctx, conn, "room-abc-1", "alice"); !ack.OK {
		t.Errorf("join after bad payloads failed: %s", ack.Error)
	}
}

func TestWebSocketJoinRejectsMissingRoom(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, s)
	ack := joinRoom(t, ctx, conn, "", "alice")
	if ack.OK || ack.Error != "roomCode required" {
		t.Errorf("unexpected ack: %+v", ack)
	}
}

func TestWebSocketSignalRelay(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, s)
	connB := dialWS(t, ctx, s)
	joinRoom(t, ctx, connA, "room-abc-1", "alice")
	joinRoom(t, ctx, connB, "room-abc-1", "bob")

	// Room-wide signal from A reaches B but not A.
	sendEnvelope(t, ctx, connA, 0, proto.InboundTypeSignal, proto.SignalData{
		RoomCode: "room-abc-1",
		Signal:   json.RawMessage(`{"sdp":"offer"}`),
	})

	env := readUntil(t, ctx, connB, isEvent(proto.EventSignal))
	var sig proto.Signal
	if err := json.Unmarshal(env.Data, &sig); err != nil {
		t.Fatalf("unmarshal signal: %v", err)
	}
	if sig.From == "" || string(sig.Signal) != `{"sdp":"offer"}` {
		t.Errorf("unexpected signal payload: from=%q signal=%s", sig.From, sig.Signal)
	}

	// Targeted reply using the sender id from the relayed signal.
	sendEnvelope(t, ctx, connB, 0, proto.InboundTypeSignal, proto.SignalData{
		RoomCode: "room-abc-1",
		To:       sig.From,
		Signal:   json.RawMessage(`{"sdp":"answer"}`),
	})

	env = readUntil(t, ctx, connA, isEvent(proto.EventSignal))
	if err := json.Unmarshal(env.Data, &sig); err != nil {
		t.Fatalf("unmarshal signal: %v", err)
	}
	if string(sig.Signal) != `{"sdp":"answer"}` {
		t.Errorf("unexpected targeted signal: %s", sig.Signal)
	}
}

func TestWebSocketDisconnectNotifiesRoom(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, s)
	connB := dialWS(t, ctx, s)
	joinRoom(t, ctx, connA, "room-abc-1", "alice")
	joinRoom(t, ctx, connB, "room-abc-1", "bob")

	connB.Close(websocket.StatusNormalClosure, "bye")

	env := readUntil(t, ctx, connA, isEvent(proto.EventUserLeft))
	var left proto.UserLeft
	if err := json.Unmarshal(env.Data, &left); err != nil {
		t.Fatalf("unmarshal user-left: %v", err)
	}
	if left.ID == "" {
		t.Errorf("expected departing connection id, got %+v", left)
	}
}

func TestWebSocketUnknownTypeError(t *testing.T) {
	s := newTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, s)
	sendEnvelope(t, ctx, conn, 7, "bogus", struct{}{})

	env := readUntil(t, ctx, conn, func(env outboundEnvelope) bool {
		return env.Type == proto.OutboundTypeError
	})
	if env.Error == nil || env.Error.Code != "invalid_message" || env.ID != 7 {
		t.Errorf("unexpected error envelope: %+v", env)
	}
}
