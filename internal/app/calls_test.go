package app

import (
	"testing"
	"time"
)

func TestCallTimeoutFires(t *testing.T) {
	fired := make(chan PendingCall, 1)
	ct := NewCallTimeouts(10*time.Millisecond, func(call PendingCall) {
		fired <- call
	})

	ct.Arm(PendingCall{Room: "a_b", Caller: "a", Callee: "b"})

	select {
	case call := <-fired:
		if call.Room != "a_b" || call.Caller != "a" || call.Callee != "b" {
			t.Fatalf("expired call = %+v", call)
		}
	case <-time.After(time.Second):
		t.Fatal("ring timeout never fired")
	}
	if ct.Pending("a_b") {
		t.Fatal("call still pending after expiry")
	}
}

func TestCallTimeoutDisarmedByAccept(t *testing.T) {
	fired := make(chan PendingCall, 1)
	ct := NewCallTimeouts(20*time.Millisecond, func(call PendingCall) {
		fired <- call
	})

	ct.Arm(PendingCall{Room: "a_b", Caller: "a", Callee: "b"})
	if !ct.Disarm("a_b") {
		t.Fatal("Disarm found no pending call")
	}

	select {
	case <-fired:
		t.Fatal("timeout fired after disarm")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestCallTimeoutDisarmCaller(t *testing.T) {
	fired := make(chan PendingCall, 2)
	ct := NewCallTimeouts(20*time.Millisecond, func(call PendingCall) {
		fired <- call
	})

	ct.Arm(PendingCall{Room: "a_b", Caller: "a", Callee: "b"})
	ct.Arm(PendingCall{Room: "grp-1", Caller: "a", IsGroup: true})
	ct.Arm(PendingCall{Room: "c_d", Caller: "c", Callee: "d"})

	ct.DisarmCaller("a")

	select {
	case call := <-fired:
		if call.Caller != "c" {
			t.Fatalf("unexpected expiry for caller %s", call.Caller)
		}
	case <-time.After(time.Second):
		t.Fatal("surviving call never expired")
	}
	if ct.Pending("a_b") || ct.Pending("grp-1") {
		t.Fatal("caller's calls still pending after DisarmCaller")
	}
}

func TestCallTimeoutRearmResets(t *testing.T) {
	fired := make(chan PendingCall, 2)
	ct := NewCallTimeouts(30*time.Millisecond, func(call PendingCall) {
		fired <- call
	})

	ct.Arm(PendingCall{Room: "a_b", Caller: "a", Callee: "b"})
	ct.Arm(PendingCall{Room: "a_b", Caller: "a", Callee: "b"})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("rearmed call never expired")
	}
	select {
	case <-fired:
		t.Fatal("rearm produced a second expiry")
	case <-time.After(80 * time.Millisecond):
	}
}
