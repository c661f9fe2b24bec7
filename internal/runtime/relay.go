package runtime

import (
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
)

// SpawnRelay starts a one-shot process that waits for a single reply from
// target and forwards it, first to observer and then to caller, rewriting
// the sender to the target so the relay stays invisible. The relay watches
// the target, so a target crash frees it instead of leaking a waiter. It
// exits immediately after the one delivery and never retries.
func (s *System) SpawnRelay(target, caller, observer *procpkg.Ref) *procpkg.Ref {
	s.metrics.relayOpened()
	return s.Spawn("relay", func(c *procpkg.Context) error {
		defer s.metrics.relayClosed()

		target.Watch(c.Self())
		defer target.Unwatch(c.Self())

		for {
			env := c.Receive()

			if term, ok := env.Message.(procpkg.Terminated); ok {
				if term.Ref == target {
					c.Log().Debug("target terminated before replying", loggingpkg.LogFields{
						"target": target.String(),
					})
					return nil
				}
				continue
			}

			if env.Sender != target {
				c.Log().Debug("discarding message not sent by target", loggingpkg.LogFields{
					"sender": env.Sender,
				})
				continue
			}

			if observer != nil {
				observer.Send(target, env.Message)
			}
			if caller != nil {
				caller.Send(target, env.Message)
			}
			return nil
		}
	})
}
