package app_test

import (
	"testing"

	"quizhub-server/internal/app"
)

func TestRegistrySendAndUnregister(t *testing.T) {
	registry := app.NewRegistry()
	var left []string
	registry.OnLeave(func(connID, roomID string) { left = append(left, connID+"@"+roomID) })

	p := app.NewPeer("c1", 4)
	registry.Register(p)
	if !registry.Send("c1", app.Event{Type: app.EventGameState}) {
		t.Fatalf("send to a live peer should succeed")
	}
	if registry.Send("missing", app.Event{Type: app.EventGameState}) {
		t.Fatalf("send to an unknown peer should fail")
	}
	if !registry.Bind("c1", "R1") {
		t.Fatalf("bind of a live peer should succeed")
	}

	registry.Unregister("c1")
	registry.Unregister("c1")
	if len(left) != 1 || left[0] != "c1@R1" {
		t.Fatalf("expected one leave for c1@R1, got %v", left)
	}
	select {
	case <-p.Done():
	default:
		t.Fatalf("unregistered peer should be closed")
	}
	if registry.Bind("c1", "R1") {
		t.Fatalf("bind after unregister should fail")
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", registry.Len())
	}
}

func TestRegistryUnboundPeerSkipsLeaveHook(t *testing.T) {
	registry := app.NewRegistry()
	calls := 0
	registry.OnLeave(func(string, string) { calls++ })
	registry.Register(app.NewPeer("c1", 1))
	registry.Unregister("c1")
	if calls != 0 {
		t.Fatalf("expected no leave hook, got %d calls", calls)
	}
}

func TestUnbindIgnoresStaleRoom(t *testing.T) {
	registry := app.NewRegistry()
	registry.Register(app.NewPeer("c1", 1))
	registry.Bind("c1", "R2")
	registry.Unbind("c1", "R1")
	if roomID, ok := registry.LookupRoom("c1"); !ok || roomID != "R2" {
		t.Fatalf("expected binding to R2 kept, got %q %v", roomID, ok)
	}
}

func TestSlowPeerIsEvicted(t *testing.T) {
	registry := app.NewRegistry()
	p := app.NewPeer("slow", 2)
	registry.Register(p)

	for i := 0; i < 2; i++ {
		if !registry.Send("slow", app.Event{Type: app.EventScoreUpdate}) {
			t.Fatalf("send %d should fit in the queue", i)
		}
	}
	if registry.Send("slow", app.Event{Type: app.EventScoreUpdate}) {
		t.Fatalf("send to a full queue should fail")
	}
	select {
	case <-p.Done():
	default:
		t.Fatalf("full peer should be evicted")
	}
	// Queued frames stay readable for the writer to flush.
	if n := len(p.Outbound()); n != 2 {
		t.Fatalf("expected 2 queued frames, got %d", n)
	}
	if registry.Send("slow", app.Event{Type: app.EventScoreUpdate}) {
		t.Fatalf("send after eviction should fail")
	}
}
