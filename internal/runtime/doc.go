/*
Package runtime provides the core interception infrastructure for wiretap.

# Architecture Overview

The runtime package implements transparent message interception for named
in-process services. A wiretap proxy takes over a registry name, forwards
or rewrites the traffic addressed to it, and repairs the binding when
either side of the tap terminates.

# Package Structure

## Core System (system.go)

The System struct is the central orchestrator that wires together:
  - The shared process registry
  - Config, logger, and clock
  - Prometheus metrics collection
  - The egress transport and event bridge

## Wiretap Proxy (tap.go)

System.Install claims a registry name, verifies the takeover, and runs the
proxy state machine: Active (forward and handle), Dropped (target died,
repair the binding), Watching (poll for a restarted service and hand off
to a fresh proxy).

## Handlers (handler.go)

A Handler is invoked synchronously for every intercepted message.
Passthrough forwards verbatim; LoaderHandler recognises module load
requests and splices a reply relay into the exchange.

## Reply Relay (relay.go)

A one-shot process correlating a single request with its single reply,
delivering the reply to the tap observer and the original caller.

## Watcher (watcher.go)

A broadcast service built on the proxy: it taps the module loader and
fans observed load events out to a subscriber set, optionally
republishing them through the event bridge.

## Event Bridge (bridge.go)

Publishes observed load events onto a Watermill topic so out-of-process
consumers can follow module loads.

# Sub-packages

  - config/: Runtime configuration with validation
  - errors/: Sentinel errors
  - ids/: ULID generation for process and message IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
  - proc/: Process spawning, mailboxes, and termination watching
  - registry/: The shared name-to-process table

# Usage Example

	cfg := &wiretap.Config{
		LoaderService:  "module_loader",
		MetricsEnabled: true,
	}

	sys := wiretap.NewSystem(cfg, logger, ctx, wiretap.SystemDependencies{})

	watcher, err := sys.StartWatcher("module_events")
	if err != nil {
		// loader not running, or the name is taken
	}
	watcher.Subscribe(listener)
*/
package runtime
