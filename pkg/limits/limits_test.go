package limits

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestConnectionLimiter(t *testing.T) {
	cl := NewConnectionLimiter(2)

	if !cl.Acquire("10.0.0.1") || !cl.Acquire("10.0.0.1") {
		t.Fatal("first two connections should pass")
	}
	if cl.Acquire("10.0.0.1") {
		t.Error("third connection should be refused")
	}
	if !cl.Acquire("10.0.0.2") {
		t.Error("other addresses have their own budget")
	}
	if cl.Blocked() != 1 {
		t.Errorf("Blocked() = %d, want 1", cl.Blocked())
	}

	cl.Release("10.0.0.1")
	if cl.Count("10.0.0.1") != 1 {
		t.Errorf("Count = %d, want 1", cl.Count("10.0.0.1"))
	}
	if !cl.Acquire("10.0.0.1") {
		t.Error("released slot should be reusable")
	}

	cl.Release("10.0.0.2")
	cl.Release("10.0.0.2")
	if cl.Count("10.0.0.2") != 0 {
		t.Error("extra release must not go negative")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.7:5123"
	if got := ClientIP(r); got != "192.0.2.7" {
		t.Errorf("ClientIP = %q", got)
	}

	r.RemoteAddr = "192.0.2.8"
	if got := ClientIP(r); got != "192.0.2.8" {
		t.Errorf("ClientIP without port = %q", got)
	}
}

func TestTokenBucket(t *testing.T) {
	clock := time.Unix(0, 0)
	tb := NewTokenBucket(2, 3)
	tb.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if !tb.Allow("sock") {
			t.Fatalf("event %d within burst refused", i)
		}
	}
	if tb.Allow("sock") {
		t.Error("burst exhausted, event should be refused")
	}
	if !tb.Allow("other") {
		t.Error("keys are independent")
	}

	clock = clock.Add(500 * time.Millisecond)
	if !tb.Allow("sock") {
		t.Error("one token should be back after half a second")
	}
	if tb.Allow("sock") {
		t.Error("only one token refilled")
	}

	clock = clock.Add(time.Hour)
	for i := 0; i < 3; i++ {
		tb.Allow("sock")
	}
	if tb.Allow("sock") {
		t.Error("refill must cap at burst")
	}

	tb.Forget("sock")
	if tb.Len() != 1 {
		t.Errorf("Len() = %d after Forget, want 1", tb.Len())
	}
}
