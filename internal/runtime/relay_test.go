package runtime

import (
	"testing"

	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

func TestRelayForwardsSingleReply(t *testing.T) {
	s := newTestSystem(t)
	target := spawnService(s, "target", make(chan procpkg.Envelope, 8))
	defer kill(t, target)
	callerBuf := make(chan procpkg.Envelope, 8)
	caller := spawnService(s, "caller", callerBuf)
	defer kill(t, caller)
	observerBuf := make(chan procpkg.Envelope, 8)
	observer := spawnService(s, "observer", observerBuf)
	defer kill(t, observer)
	stranger := spawnService(s, "stranger", make(chan procpkg.Envelope, 8))
	defer kill(t, stranger)

	relay := s.SpawnRelay(target, caller, observer)

	// Noise from anyone but the target is discarded.
	relay.Send(stranger, "noise")

	reply := &LoadReply{Module: "crypto"}
	relay.Send(target, reply)

	obsEnv := receiveEnvelope(t, observerBuf)
	if obsEnv.Sender != target {
		t.Fatalf("observer copy sender = %s, want target", obsEnv.Sender)
	}
	if obsEnv.Message != reply {
		t.Fatalf("observer copy = %#v, want the reply", obsEnv.Message)
	}

	callerEnv := receiveEnvelope(t, callerBuf)
	if callerEnv.Sender != target {
		t.Fatalf("caller copy sender = %s, want target", callerEnv.Sender)
	}
	if callerEnv.Message != reply {
		t.Fatalf("caller copy = %#v, want the reply", callerEnv.Message)
	}

	waitUntil(t, func() bool { return !relay.Alive() }, "relay did not exit after delivering")

	// A second reply finds the relay gone.
	if relay.Send(target, &LoadReply{Module: "ssl"}) {
		t.Fatal("send to finished relay succeeded")
	}
	expectSilence(t, callerBuf)
	expectSilence(t, observerBuf)
}

func TestRelayExitsWhenTargetDies(t *testing.T) {
	s := newTestSystem(t)
	target := spawnService(s, "target", make(chan procpkg.Envelope, 8))
	callerBuf := make(chan procpkg.Envelope, 8)
	caller := spawnService(s, "caller", callerBuf)
	defer kill(t, caller)

	relay := s.SpawnRelay(target, caller, nil)
	kill(t, target)

	waitUntil(t, func() bool { return !relay.Alive() }, "relay leaked after target death")
	expectSilence(t, callerBuf)
}
