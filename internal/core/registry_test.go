package core

import "testing"

func TestRegistryJoinAndBroadcast(t *testing.T) {
	reg := NewRegistry()

	alice := NewClient("a")
	bob := NewClient("b")
	carol := NewClient("c")

	reg.Add(alice)
	reg.Add(bob)
	reg.Add(carol)

	reg.Join(alice, "room-001", "alice")
	reg.Join(bob, "room-001", "bob")
	reg.Join(carol, "room-002", "carol")

	reg.BroadcastToRoom("room-001", &Event{Kind: EventNewMessage, Room: "room-001"}, "")

	mustEvent(t, alice.Events, EventNewMessage)
	mustEvent(t, bob.Events, EventNewMessage)
	mustNoEvent(t, carol.Events)
}

func TestRegistryBroadcastExcludesSender(t *testing.T) {
	reg := NewRegistry()

	alice := NewClient("a")
	bob := NewClient("b")
	reg.Add(alice)
	reg.Add(bob)
	reg.Join(alice, "room-001", "alice")
	reg.Join(bob, "room-001", "bob")

	reg.BroadcastToRoom("room-001", &Event{Kind: EventUserJoined, Room: "room-001"}, "a")

	mustEvent(t, bob.Events, EventUserJoined)
	mustNoEvent(t, alice.Events)
}

func TestRegistryLaterJoinMovesClient(t *testing.T) {
	reg := NewRegistry()

	alice := NewClient("a")
	reg.Add(alice)

	reg.Join(alice, "room-001", "alice")
	reg.Join(alice, "room-002", "alice")

	if size := reg.RoomSize("room-001"); size != 0 {
		t.Errorf("expected room-001 to be empty, got %d members", size)
	}
	if size := reg.RoomSize("room-002"); size != 1 {
		t.Errorf("expected room-002 to have 1 member, got %d", size)
	}

	sess, ok := reg.Session("a")
	if !ok || sess.RoomCode != "room-002" {
		t.Errorf("unexpected session: %+v ok=%v", sess, ok)
	}
}

func TestRegistrySendToMissingConnection(t *testing.T) {
	reg := NewRegistry()

	if reg.SendTo("ghost", &Event{Kind: EventSignal}) {
		t.Error("expected SendTo to report missing connection")
	}
}

func TestRegistryRemoveReturnsSession(t *testing.T) {
	reg := NewRegistry()

	alice := NewClient("a")
	reg.Add(alice)
	reg.Join(alice, "room-001", "alice")

	sess, ok := reg.Remove(alice)
	if !ok || sess.RoomCode != "room-001" || sess.DisplayName != "alice" {
		t.Fatalf("unexpected removed session: %+v ok=%v", sess, ok)
	}

	// Second remove is a no-op.
	if _, ok := reg.Remove(alice); ok {
		t.Error("expected second remove to report missing client")
	}

	if reg.SendTo("a", &Event{Kind: EventSignal}) {
		t.Error("expected removed client to be unreachable")
	}
}
