package runtime

import (
	"context"
	"testing"
	"time"

	configpkg "github.com/drblury/wiretap/internal/runtime/config"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

// killMsg makes a test service exit its loop.
type killMsg struct{}

func newTestSystem(t *testing.T) *System {
	t.Helper()
	conf := &configpkg.Config{
		PollInterval: 10 * time.Millisecond,
	}
	s, err := TryNewSystem(conf, loggingpkg.Nop(), context.Background(), SystemDependencies{})
	if err != nil {
		t.Fatalf("creating system: %v", err)
	}
	return s
}

// spawnService starts a process that copies every received envelope into
// buf and exits on killMsg.
func spawnService(s *System, name string, buf chan procpkg.Envelope) *procpkg.Ref {
	return s.Spawn(name, func(c *procpkg.Context) error {
		for {
			env := c.Receive()
			if _, ok := env.Message.(killMsg); ok {
				return nil
			}
			buf <- env
		}
	})
}

// spawnLoader starts a fake module loader: recognised load requests are
// answered with a successful LoadReply to the request's reply recipient.
func spawnLoader(s *System, buf chan procpkg.Envelope) *procpkg.Ref {
	return s.Spawn("loader", func(c *procpkg.Context) error {
		for {
			env := c.Receive()
			switch m := env.Message.(type) {
			case killMsg:
				return nil
			case *LoadRequest:
				if buf != nil {
					buf <- env
				}
				if m.ReplyTo != nil {
					m.ReplyTo.Send(c.Self(), &LoadReply{Module: m.Module})
				}
			default:
				if buf != nil {
					buf <- env
				}
			}
		}
	})
}

func kill(t *testing.T, ref *procpkg.Ref) {
	t.Helper()
	ref.Send(nil, killMsg{})
	select {
	case <-ref.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not exit", ref)
	}
}

func waitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func receiveEnvelope(t *testing.T, buf chan procpkg.Envelope) procpkg.Envelope {
	t.Helper()
	select {
	case env := <-buf:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return procpkg.Envelope{}
	}
}

func expectSilence(t *testing.T, buf chan procpkg.Envelope) {
	t.Helper()
	select {
	case env := <-buf:
		t.Fatalf("expected no message, got %#v", env.Message)
	case <-time.After(50 * time.Millisecond):
	}
}
