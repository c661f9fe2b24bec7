package runtime

import (
	errspkg "github.com/drblury/wiretap/internal/runtime/errors"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

// ModuleLoaded is the event fanned out to subscribers whenever the watched
// loader reports a successful load.
type ModuleLoaded struct {
	Service string `json:"service"`
	Module  string `json:"module"`
}

// Watcher control messages. All fire-and-forget.
type subscribeMsg struct{ listener *procpkg.Ref }
type unsubscribeMsg struct{ listener *procpkg.Ref }
type stopMsg struct{}

// Watcher is the handle to a running broadcast service.
type Watcher struct {
	name string
	ref  *procpkg.Ref
}

// Name returns the registry name the watcher is registered under.
func (w *Watcher) Name() string { return w.name }

// Ref returns the watcher process.
func (w *Watcher) Ref() *procpkg.Ref { return w.ref }

// Subscribe adds listener to the broadcast audience. Idempotent.
func (w *Watcher) Subscribe(listener *procpkg.Ref) {
	w.ref.Send(nil, subscribeMsg{listener: listener})
}

// Unsubscribe removes listener from the broadcast audience. Idempotent.
func (w *Watcher) Unsubscribe(listener *procpkg.Ref) {
	w.ref.Send(nil, unsubscribeMsg{listener: listener})
}

// Stop terminates the watcher. The wiretap on the loader observes this as
// client termination and withdraws, restoring the loader's binding.
func (w *Watcher) Stop() {
	w.ref.Send(nil, stopMsg{})
}

// Done is closed once the watcher process has exited.
func (w *Watcher) Done() <-chan struct{} { return w.ref.Done() }

// StartWatcher registers a broadcast service under name, taps the module
// loader configured in Config.LoaderService, and rebroadcasts observed
// load events to its subscriber set. It fails with ErrAlreadyRunning when
// name is taken, and propagates install errors (ErrTargetNotFound,
// ErrBindFailed) without registering anything.
func (s *System) StartWatcher(name string) (*Watcher, error) {
	if name == "" {
		return nil, errspkg.ErrNameRequired
	}
	if _, ok := s.reg.Lookup(name); ok {
		return nil, errspkg.ErrAlreadyRunning
	}

	w := &watcherSession{system: s, name: name}
	ref := s.Spawn("watcher:"+name, w.loop)

	if err := s.reg.Bind(name, ref); err != nil {
		ref.Send(nil, stopMsg{})
		return nil, errspkg.ErrAlreadyRunning
	}

	if _, err := s.Install(s.Conf.LoaderService, ref, s.LoaderHandler()); err != nil {
		s.reg.Unbind(name)
		ref.Send(nil, stopMsg{})
		return nil, err
	}

	return &Watcher{name: name, ref: ref}, nil
}

type watcherSession struct {
	system *System
	name   string
}

func (w *watcherSession) loop(c *procpkg.Context) error {
	log := c.Log().With(loggingpkg.LogFields{"watcher": w.name})
	listeners := make(map[*procpkg.Ref]struct{})

	for {
		env := c.Receive()

		switch m := env.Message.(type) {
		case subscribeMsg:
			listeners[m.listener] = struct{}{}

		case unsubscribeMsg:
			delete(listeners, m.listener)

		case stopMsg:
			// A loser of the start race stops without ever owning the
			// binding; only remove it when it still points at us.
			if bound, ok := w.system.reg.Lookup(w.name); ok && bound == c.Self() {
				w.system.reg.Unbind(w.name)
			}
			log.Info("watcher stopped", nil)
			return nil

		case *LoadReply:
			if m.Err != nil {
				log.Debug("ignoring failed load", loggingpkg.LogFields{
					"module": m.Module,
					"error":  m.Err,
				})
				continue
			}
			w.broadcast(c, log, listeners, m.Module)

		case procpkg.Terminated:
			// The loader tap recovers on its own; nothing to do here.
			log.Debug("observed termination", loggingpkg.LogFields{"who": m.Ref.String()})

		default:
			log.Debug("ignoring unexpected message", nil)
		}
	}
}

// broadcast fans the event out to every listener, fire-and-forget, and
// republishes it through the bridge when one is configured. Dead listeners
// are never removed automatically; removal is explicit via Unsubscribe.
func (w *watcherSession) broadcast(c *procpkg.Context, log loggingpkg.ServiceLogger, listeners map[*procpkg.Ref]struct{}, module string) {
	event := ModuleLoaded{Service: w.name, Module: module}

	for listener := range listeners {
		listener.Send(c.Self(), event)
	}

	w.system.metrics.observeBroadcast(w.name)
	log.Debug("broadcast load event", loggingpkg.LogFields{
		"module":    module,
		"listeners": len(listeners),
	})

	if w.system.bridge != nil {
		if err := w.system.bridge.Publish(event); err != nil {
			log.Error("bridge publish failed", err, loggingpkg.LogFields{"module": module})
		}
	}
}
