// Package proc provides the lightweight process primitives the wiretap
// runtime is built on: spawned goroutines with a single mailbox each,
// addressed through opaque refs, with termination delivered to watching
// processes as an ordinary mailbox message.
package proc

import (
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	idspkg "github.com/drblury/wiretap/internal/runtime/ids"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
)

// DefaultMailboxSize is the buffered capacity of a mailbox when no option
// overrides it.
const DefaultMailboxSize = 64

// Envelope pairs a message with the ref that sent it. A nil Sender marks a
// runtime-internal message, such as a Terminated notice.
type Envelope struct {
	Sender  *Ref
	Message any
}

// Terminated is delivered to watching processes when a watched process
// exits. Cause is nil for a normal exit.
type Terminated struct {
	Ref   *Ref
	Cause error
}

// Behavior is the body of a spawned process. It owns the mailbox for the
// lifetime of the process; returning ends the process, and the returned
// error becomes the exit cause seen by watchers.
type Behavior func(c *Context) error

// Ref is a handle to a spawned process. Refs are comparable by pointer;
// every spawn yields a distinct ref.
type Ref struct {
	id      string
	name    string
	mailbox chan Envelope
	done    chan struct{}

	mu       sync.Mutex
	watchers []*Ref
	dead     bool
	cause    error
}

// ID returns the process ULID.
func (r *Ref) ID() string { return r.id }

// Name returns the label given at spawn time.
func (r *Ref) Name() string { return r.name }

func (r *Ref) String() string {
	return fmt.Sprintf("%s[%s]", r.name, r.id)
}

// Done is closed when the process has exited.
func (r *Ref) Done() <-chan struct{} { return r.done }

// Err returns the exit cause once the process has exited, nil otherwise.
func (r *Ref) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cause
}

// Alive reports whether the process has not yet exited.
func (r *Ref) Alive() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Send enqueues msg into the process mailbox, blocking until there is room.
// It returns false without delivering when the process is dead. Messages
// from a given sender are delivered in the order sent.
func (r *Ref) Send(sender *Ref, msg any) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.mailbox <- Envelope{Sender: sender, Message: msg}:
		return true
	case <-r.done:
		return false
	}
}

// Watch registers w for termination delivery: when r exits, w receives a
// Terminated envelope in its mailbox. Watching an already-dead process
// delivers the notice immediately.
func (r *Ref) Watch(w *Ref) {
	r.mu.Lock()
	if r.dead {
		cause := r.cause
		r.mu.Unlock()
		w.Send(nil, Terminated{Ref: r, Cause: cause})
		return
	}
	r.watchers = append(r.watchers, w)
	r.mu.Unlock()
}

// Unwatch removes w from the watcher list. Safe to call after r exited.
func (r *Ref) Unwatch(w *Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.watchers {
		if existing == w {
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			return
		}
	}
}

func (r *Ref) exit(cause error) {
	r.mu.Lock()
	if r.dead {
		r.mu.Unlock()
		return
	}
	r.dead = true
	r.cause = cause
	watchers := r.watchers
	r.watchers = nil
	r.mu.Unlock()

	close(r.done)
	for _, w := range watchers {
		w.Send(nil, Terminated{Ref: r, Cause: cause})
	}
}

// Context is handed to a Behavior and scopes everything the process may
// touch: its own ref, its mailbox, and the injected clock and logger.
type Context struct {
	self  *Ref
	clock clock.Clock
	log   loggingpkg.ServiceLogger
}

// Self returns the ref of the running process.
func (c *Context) Self() *Ref { return c.self }

// Receive blocks until the next envelope arrives.
func (c *Context) Receive() Envelope {
	return <-c.self.mailbox
}

// Mailbox exposes the raw mailbox channel for behaviors that need to select
// over messages and timers in one loop.
func (c *Context) Mailbox() <-chan Envelope { return c.self.mailbox }

// Clock returns the clock the process was spawned with.
func (c *Context) Clock() clock.Clock { return c.clock }

// Log returns the process logger, pre-tagged with the process identity.
func (c *Context) Log() loggingpkg.ServiceLogger { return c.log }

type spawnConfig struct {
	mailboxSize int
	clock       clock.Clock
	log         loggingpkg.ServiceLogger
}

// SpawnOption customises a spawned process.
type SpawnOption func(*spawnConfig)

// WithMailboxSize overrides the mailbox capacity.
func WithMailboxSize(size int) SpawnOption {
	return func(cfg *spawnConfig) {
		if size > 0 {
			cfg.mailboxSize = size
		}
	}
}

// WithClock injects the clock visible through Context.Clock.
func WithClock(c clock.Clock) SpawnOption {
	return func(cfg *spawnConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithLogger injects the process logger.
func WithLogger(log loggingpkg.ServiceLogger) SpawnOption {
	return func(cfg *spawnConfig) {
		if log != nil {
			cfg.log = log
		}
	}
}

// Spawn starts b on its own goroutine and returns its ref. A panic inside
// the behavior is recovered into the exit cause so watchers still hear
// about it.
func Spawn(name string, b Behavior, opts ...SpawnOption) *Ref {
	cfg := spawnConfig{
		mailboxSize: DefaultMailboxSize,
		clock:       clock.New(),
		log:         loggingpkg.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ref := &Ref{
		id:      idspkg.CreateULID(),
		name:    name,
		mailbox: make(chan Envelope, cfg.mailboxSize),
		done:    make(chan struct{}),
	}

	ctx := &Context{
		self:  ref,
		clock: cfg.clock,
		log:   cfg.log.With(loggingpkg.LogFields{"proc": ref.String()}),
	}

	go func() {
		var cause error
		defer func() {
			if rec := recover(); rec != nil {
				cause = fmt.Errorf("wiretap: process %s panicked: %v", ref, rec)
			}
			ref.exit(cause)
		}()
		cause = b(ctx)
	}()

	return ref
}
