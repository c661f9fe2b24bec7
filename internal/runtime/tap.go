package runtime

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	errspkg "github.com/drblury/wiretap/internal/runtime/errors"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

// Install takes over the registry binding for name and interposes a wiretap
// proxy between callers and the bound service. Every message addressed to
// name is handed to handler; client termination withdraws the tap
// invisibly, target termination puts the proxy into a polling recovery
// loop until a replacement service appears under the same name.
//
// The returned ref is the proxy process. Install fails with
// ErrTargetNotFound when name does not resolve and with ErrBindFailed when
// another installer won the takeover race.
func (s *System) Install(name string, client *procpkg.Ref, handler Handler) (*procpkg.Ref, error) {
	if name == "" {
		return nil, errspkg.ErrNameRequired
	}
	if client == nil {
		return nil, errspkg.ErrClientRequired
	}
	if handler == nil {
		return nil, errspkg.ErrHandlerRequired
	}

	sess := &tapSession{
		system:  s,
		name:    name,
		client:  client,
		handler: handler,
	}

	ready := make(chan error, 1)
	ref := s.Spawn("tap:"+name, func(c *procpkg.Context) error {
		return sess.run(c, ready)
	})

	if err := <-ready; err != nil {
		return nil, err
	}
	return ref, nil
}

// tapSession is the state owned exclusively by one proxy process. A session
// is created at successful install and destroyed when the proxy exits; it
// is bound to exactly one registry takeover.
type tapSession struct {
	system  *System
	name    string
	client  *procpkg.Ref
	handler Handler

	target *procpkg.Ref
	log    loggingpkg.ServiceLogger
}

// run performs the takeover and reports the outcome to the installer before
// entering the active loop.
func (t *tapSession) run(c *procpkg.Context, ready chan<- error) error {
	t.log = c.Log().With(loggingpkg.LogFields{"service": t.name})

	target, ok := t.system.reg.Lookup(t.name)
	if !ok {
		t.system.metrics.observeInstall(t.name, installResultNotFound)
		ready <- errspkg.ErrTargetNotFound
		return nil
	}

	t.system.reg.Unbind(t.name)
	if err := t.system.reg.Bind(t.name, c.Self()); err != nil {
		// A competing installer claimed the name between our unbind and
		// bind. It owns the takeover now; do not rebind the target.
		t.system.metrics.observeInstall(t.name, installResultBindFailed)
		ready <- errspkg.ErrBindFailed
		return nil
	}
	if current, ok := t.system.reg.Lookup(t.name); !ok || current != c.Self() {
		t.system.metrics.observeInstall(t.name, installResultBindFailed)
		ready <- errspkg.ErrBindFailed
		return nil
	}

	t.target = target
	target.Watch(c.Self())
	t.client.Watch(c.Self())
	defer target.Unwatch(c.Self())
	defer t.client.Unwatch(c.Self())

	t.system.metrics.observeInstall(t.name, installResultOK)
	t.log.Info("wiretap attached", loggingpkg.LogFields{
		"target": target.String(),
		"client": t.client.String(),
	})

	ready <- nil
	return t.active(c)
}

// active is the forwarding loop: handler per message, state transitions on
// termination notices.
func (t *tapSession) active(c *procpkg.Context) error {
	for {
		env := c.Receive()

		if term, ok := env.Message.(procpkg.Terminated); ok {
			switch term.Ref {
			case t.target:
				return t.dropped(c)
			case t.client:
				return t.withdraw()
			default:
				t.log.Debug("ignoring termination notice from unrelated process", loggingpkg.LogFields{
					"who": term.Ref.String(),
				})
				continue
			}
		}

		t.dispatch(env)
	}
}

// dispatch invokes the handler under a span and counter.
func (t *tapSession) dispatch(env procpkg.Envelope) {
	tracer := otel.Tracer("wiretap-proxy")
	_, span := tracer.Start(
		context.Background(),
		"InterceptMessage",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("wiretap.service", t.name),
		attribute.String("message.type", fmt.Sprintf("%T", env.Message)),
	)

	t.system.metrics.observeIntercepted(t.name)
	t.handler(env, t.target, t.client)
}

// withdraw restores the registry so neither side ever learns the tap
// existed, then lets the proxy exit normally.
func (t *tapSession) withdraw() error {
	t.system.reg.Unbind(t.name)
	if err := t.system.reg.Bind(t.name, t.target); err != nil {
		t.log.Error("failed to restore target binding", err, nil)
	}
	t.system.metrics.observeWithdrawal(t.name, withdrawalReasonClient)
	t.log.Info("client terminated, wiretap withdrawn", nil)
	return nil
}

// dropped repairs the binding after the target died, leaving the name
// absent rather than dangling, and moves to the watching loop.
func (t *tapSession) dropped(c *procpkg.Context) error {
	if current, ok := t.system.reg.Lookup(t.name); ok && current == c.Self() {
		t.system.reg.Unbind(t.name)
	}
	t.system.metrics.observeWithdrawal(t.name, withdrawalReasonTarget)
	t.log.Info("target terminated, watching for a replacement", loggingpkg.LogFields{
		"poll_interval": t.system.Conf.PollInterval,
	})
	return t.watching(c)
}

// watching polls the registry until the name resolves again, then hands off
// to a freshly installed proxy and exits. Handing off instead of looping
// back keeps each proxy bound to a single rebind event.
func (t *tapSession) watching(c *procpkg.Context) error {
	ticker := c.Clock().Ticker(t.system.Conf.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case env := <-c.Mailbox():
			if term, ok := env.Message.(procpkg.Terminated); ok && term.Ref == t.client {
				t.log.Info("client terminated while watching", nil)
				return nil
			}
			t.log.Debug("message received while detached", loggingpkg.LogFields{
				"message_type": fmt.Sprintf("%T", env.Message),
			})

		case <-ticker.C:
			replacement, ok := t.system.reg.Lookup(t.name)
			if !ok || !replacement.Alive() {
				continue
			}

			if _, err := t.system.Install(t.name, t.client, t.handler); err != nil {
				if err == errspkg.ErrTargetNotFound {
					// The replacement died between poll and install; keep
					// watching.
					continue
				}
				t.log.Error("handoff install failed", err, nil)
				return nil
			}

			t.system.metrics.observeReattach(t.name)
			t.log.Info("replacement service tapped, handing off", loggingpkg.LogFields{
				"replacement": replacement.String(),
			})
			return nil
		}
	}
}
