package services

import "testing"

func TestSessionManagerStates(t *testing.T) {
	m := NewSessionManager()

	if got := m.Get(1); got.Kind != StateNone {
		t.Fatalf("fresh actor state = %v, want StateNone", got.Kind)
	}

	m.Set(1, Session{Kind: StateAwaitingScreenshot, OrderID: "09011542-a3f1"})
	got := m.Get(1)
	if got.Kind != StateAwaitingScreenshot || got.OrderID != "09011542-a3f1" {
		t.Errorf("state round-trip: %+v", got)
	}

	m.Clear(1)
	if got := m.Get(1); got.Kind != StateNone {
		t.Errorf("clear left state %v", got.Kind)
	}
}

func TestEnterChatEvictsPreviousUser(t *testing.T) {
	m := NewSessionManager()

	prev, evicted := m.EnterChat(100, 1)
	if evicted {
		t.Fatalf("first link reported eviction of %d", prev)
	}
	prev, evicted = m.EnterChat(100, 2)
	if !evicted || prev != 1 {
		t.Fatalf("second link: prev=%d evicted=%v, want 1 true", prev, evicted)
	}

	// Both directions must point at the new user only.
	if uid, ok := m.LinkedUser(100); !ok || uid != 2 {
		t.Errorf("LinkedUser = %d %v, want 2 true", uid, ok)
	}
	if _, ok := m.LinkedAdmin(1); ok {
		t.Error("evicted user still linked to admin")
	}
	if aid, ok := m.LinkedAdmin(2); !ok || aid != 100 {
		t.Errorf("LinkedAdmin(2) = %d %v, want 100 true", aid, ok)
	}
}

func TestEndChat(t *testing.T) {
	m := NewSessionManager()

	if _, ok := m.EndChat(100); ok {
		t.Fatal("EndChat without a link reported ok")
	}

	m.EnterChat(100, 5)
	uid, ok := m.EndChat(100)
	if !ok || uid != 5 {
		t.Fatalf("EndChat = %d %v, want 5 true", uid, ok)
	}
	if _, ok := m.LinkedUser(100); ok {
		t.Error("admin still linked after EndChat")
	}
	if _, ok := m.LinkedAdmin(5); ok {
		t.Error("user still linked after EndChat")
	}
}
