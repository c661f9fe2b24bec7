package runtime

import (
	"testing"

	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

func TestLoadOpRecognized(t *testing.T) {
	recognised := []LoadOp{LoadFile, EnsureLoaded, LoadAbsolute, LoadBinary, LoadNativePartial, LoadNativeSticky}
	for _, op := range recognised {
		if !op.Recognized() {
			t.Errorf("%s should be recognised", op)
		}
	}
	for _, op := range []LoadOp{"", "unload", "load_files"} {
		if op.Recognized() {
			t.Errorf("%q should not be recognised", op)
		}
	}
}

func TestPassthroughForwardsVerbatim(t *testing.T) {
	s := newTestSystem(t)
	received := make(chan procpkg.Envelope, 8)
	target := spawnService(s, "target", received)
	defer kill(t, target)
	caller := spawnService(s, "caller", make(chan procpkg.Envelope, 8))
	defer kill(t, caller)

	Passthrough()(procpkg.Envelope{Sender: caller, Message: "ping"}, target, nil)

	env := receiveEnvelope(t, received)
	if env.Sender != caller || env.Message != "ping" {
		t.Fatalf("unexpected envelope: %#v", env)
	}
}

func TestLoaderHandlerSplicesRelay(t *testing.T) {
	s := newTestSystem(t)
	targetBuf := make(chan procpkg.Envelope, 8)
	target := spawnService(s, "target", targetBuf)
	defer kill(t, target)
	clientBuf := make(chan procpkg.Envelope, 8)
	client := spawnService(s, "client", clientBuf)
	defer kill(t, client)
	callerBuf := make(chan procpkg.Envelope, 8)
	caller := spawnService(s, "caller", callerBuf)
	defer kill(t, caller)

	req := &LoadRequest{Op: EnsureLoaded, Module: "crypto", ReplyTo: caller}
	s.LoaderHandler()(procpkg.Envelope{Sender: caller, Message: req}, target, client)

	env := receiveEnvelope(t, targetBuf)
	forwarded, ok := env.Message.(*LoadRequest)
	if !ok {
		t.Fatalf("target got %#v, want *LoadRequest", env.Message)
	}
	if forwarded.Op != EnsureLoaded || forwarded.Module != "crypto" {
		t.Fatalf("request mutated in flight: %#v", forwarded)
	}
	if forwarded.ReplyTo == caller || forwarded.ReplyTo == nil {
		t.Fatal("reply recipient was not swapped for a relay")
	}
	if req.ReplyTo != caller {
		t.Fatal("original request was mutated")
	}

	// The loader answers the relay; both the client and the caller see it.
	reply := &LoadReply{Module: "crypto"}
	forwarded.ReplyTo.Send(target, reply)

	clientEnv := receiveEnvelope(t, clientBuf)
	if clientEnv.Sender != target || clientEnv.Message != reply {
		t.Fatalf("client copy: %#v", clientEnv)
	}
	callerEnv := receiveEnvelope(t, callerBuf)
	if callerEnv.Sender != target || callerEnv.Message != reply {
		t.Fatalf("caller copy: %#v", callerEnv)
	}
}

func TestLoaderHandlerDefaultsCallerToSender(t *testing.T) {
	s := newTestSystem(t)
	targetBuf := make(chan procpkg.Envelope, 8)
	target := spawnService(s, "target", targetBuf)
	defer kill(t, target)
	clientBuf := make(chan procpkg.Envelope, 8)
	client := spawnService(s, "client", clientBuf)
	defer kill(t, client)
	senderBuf := make(chan procpkg.Envelope, 8)
	sender := spawnService(s, "sender", senderBuf)
	defer kill(t, sender)

	req := &LoadRequest{Op: LoadFile, Module: "ssl"}
	s.LoaderHandler()(procpkg.Envelope{Sender: sender, Message: req}, target, client)

	env := receiveEnvelope(t, targetBuf)
	forwarded := env.Message.(*LoadRequest)
	forwarded.ReplyTo.Send(target, &LoadReply{Module: "ssl"})

	receiveEnvelope(t, clientBuf)
	env = receiveEnvelope(t, senderBuf)
	reply, ok := env.Message.(*LoadReply)
	if !ok || reply.Module != "ssl" {
		t.Fatalf("sender did not get the reply: %#v", env.Message)
	}
}

func TestLoaderHandlerPassesThroughUnrecognised(t *testing.T) {
	s := newTestSystem(t)
	targetBuf := make(chan procpkg.Envelope, 8)
	target := spawnService(s, "target", targetBuf)
	defer kill(t, target)
	clientBuf := make(chan procpkg.Envelope, 8)
	client := spawnService(s, "client", clientBuf)
	defer kill(t, client)
	caller := spawnService(s, "caller", make(chan procpkg.Envelope, 8))
	defer kill(t, caller)

	handler := s.LoaderHandler()
	handler(procpkg.Envelope{Sender: caller, Message: "status"}, target, client)
	handler(procpkg.Envelope{Sender: caller, Message: &LoadRequest{Op: "unload", Module: "x"}}, target, client)

	env := receiveEnvelope(t, targetBuf)
	if env.Sender != caller || env.Message != "status" {
		t.Fatalf("plain message not forwarded verbatim: %#v", env)
	}
	env = receiveEnvelope(t, targetBuf)
	req, ok := env.Message.(*LoadRequest)
	if !ok || req.Op != "unload" || req.ReplyTo != nil {
		t.Fatalf("unrecognised op not forwarded verbatim: %#v", env.Message)
	}
	expectSilence(t, clientBuf)
}
