// Package wiretap intercepts messages addressed to a named service without
// the service or its callers noticing. It takes over the service's registry
// binding with a proxy process, hands every intercepted envelope to a
// pluggable handler, and repairs the binding when either side terminates:
// client death withdraws the tap invisibly, target death puts the proxy into
// a polling loop that re-attaches as soon as a replacement appears under the
// same name.
//
// System hosts the runtime: a registry of named processes, the clock driving
// detached-proxy polling, Prometheus collectors, and an optional Watermill
// event bridge. A minimal setup fills Config, creates a System, binds the
// observed services, and calls Install or StartWatcher; see README.md for a
// copy/paste quick start snippet.
//
// # Watching module loads
//
// StartWatcher taps the configured module loading service and rebroadcasts
// every successful load to its subscriber set as a ModuleLoaded event. Load
// requests keep flowing to the real loader through a one-shot reply relay,
// so callers get their replies exactly as if the tap were never there.
//
// # Event bridge transports
//
// When broadcasting is enabled, load events are republished onto a Watermill
// topic. Four transports ship out of the box:
//   - channel: In-memory Go channels for testing
//   - kafka: High-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - nats: High-performance messaging
//
// The channel transport registers itself; the broker-backed ones are opted
// into by calling their Register function or importing them for side
// effects. SystemDependencies accepts a custom TransportBuilder to plug in
// anything else.
package wiretap
