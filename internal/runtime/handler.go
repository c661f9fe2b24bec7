package runtime

import (
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

// Handler is invoked synchronously in the proxy loop for every intercepted
// message. It decides what reaches the target: forward verbatim, rewrite,
// splice in a relay, or consume the message entirely. Handlers gate the
// delivery of all later traffic, so they must not block.
type Handler func(env procpkg.Envelope, target, client *procpkg.Ref)

// Passthrough returns the default handler: every message is forwarded to
// the target unchanged, keeping the proxy invisible.
func Passthrough() Handler {
	return func(env procpkg.Envelope, target, client *procpkg.Ref) {
		target.Send(env.Sender, env.Message)
	}
}

// LoadOp tags the module loader requests a tap recognises.
type LoadOp string

// The closed set of recognised loader request shapes. Anything else passes
// through untouched.
const (
	LoadFile          LoadOp = "load_file"
	EnsureLoaded      LoadOp = "ensure_loaded"
	LoadAbsolute      LoadOp = "load_absolute"
	LoadBinary        LoadOp = "load_binary"
	LoadNativePartial LoadOp = "load_native_partial"
	LoadNativeSticky  LoadOp = "load_native_sticky"
)

// Recognized reports whether op belongs to the intercepted set.
func (op LoadOp) Recognized() bool {
	switch op {
	case LoadFile, EnsureLoaded, LoadAbsolute, LoadBinary, LoadNativePartial, LoadNativeSticky:
		return true
	}
	return false
}

// LoadRequest asks the loader service to bring a module in. Payload is
// opaque to the tap and forwarded unchanged.
type LoadRequest struct {
	Op      LoadOp
	Module  string
	ReplyTo *procpkg.Ref
	Payload any
}

// LoadReply is the loader's answer to a LoadRequest. A nil Err means the
// module is loaded.
type LoadReply struct {
	Module string
	Err    error
}

// LoaderHandler returns the handler used by the watcher: recognised load
// requests are forwarded with a freshly spawned reply relay substituted as
// the reply recipient, so the tap client observes every outcome; all other
// traffic passes through verbatim.
func (s *System) LoaderHandler() Handler {
	return func(env procpkg.Envelope, target, client *procpkg.Ref) {
		req, ok := env.Message.(*LoadRequest)
		if !ok || !req.Op.Recognized() {
			target.Send(env.Sender, env.Message)
			return
		}

		caller := req.ReplyTo
		if caller == nil {
			caller = env.Sender
		}

		relay := s.SpawnRelay(target, caller, client)

		forwarded := *req
		forwarded.ReplyTo = relay
		target.Send(relay, &forwarded)
	}
}
