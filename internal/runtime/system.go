package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	configpkg "github.com/drblury/wiretap/internal/runtime/config"
	errspkg "github.com/drblury/wiretap/internal/runtime/errors"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
	registrypkg "github.com/drblury/wiretap/internal/runtime/registry"
	transportpkg "github.com/drblury/wiretap/transport"
	// Registers the default in-memory transport with the registry.
	_ "github.com/drblury/wiretap/transport/channel"
)

// SystemDependencies holds the optional collaborators a System can use.
// Leave fields nil to get the defaults.
type SystemDependencies struct {
	// Registry replaces the default in-memory table, for callers that
	// already run their own discovery surface.
	Registry registrypkg.Registry

	// TransportFactory overrides how the bridge transport is built.
	TransportFactory transportpkg.Builder

	// MetricsRegisterer receives the wiretap collectors. Defaults to
	// prometheus.DefaultRegisterer when metrics are enabled.
	MetricsRegisterer prometheus.Registerer

	// Clock drives the detached-proxy polling. Defaults to the wall clock.
	Clock clock.Clock
}

// System wires the registry, config, logger, clock, metrics, and the event
// bridge behind every wiretap operation.
type System struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	reg     registrypkg.Registry
	clock   clock.Clock
	metrics *Metrics
	bridge  *Bridge
}

// NewSystem constructs a System for the supplied configuration. It panics
// when the bridge transport cannot be built; use TryNewSystem to handle
// that as an error.
func NewSystem(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps SystemDependencies) *System {
	s, err := TryNewSystem(conf, log, ctx, deps)
	if err != nil {
		panic(err)
	}
	return s
}

// TryNewSystem is NewSystem with errors instead of panics.
func TryNewSystem(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps SystemDependencies) (*System, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}

	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("wiretap: invalid config: %w", err)
	}

	log.Info("Creating wiretap system", loggingpkg.LogFields{
		"loader_service": conf.LoaderService,
		"config":         conf,
	})

	s := &System{
		Conf:   conf,
		Logger: log,
		reg:    deps.Registry,
		clock:  deps.Clock,
	}
	if s.reg == nil {
		s.reg = registrypkg.NewTable()
	}
	if s.clock == nil {
		s.clock = clock.New()
	}

	if conf.MetricsEnabled {
		registerer := deps.MetricsRegisterer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		s.metrics = NewMetrics(registerer)
		s.serveMetrics()
	}

	if conf.BroadcastEnabled {
		bridge, err := s.buildBridge(ctx, deps)
		if err != nil {
			return nil, err
		}
		s.bridge = bridge
	}

	return s, nil
}

func (s *System) buildBridge(ctx context.Context, deps SystemDependencies) (*Bridge, error) {
	wmLogger := loggingpkg.NewWatermillAdapter(s.Logger)

	build := deps.TransportFactory
	if build == nil {
		build = transportpkg.Build
	}
	tr, err := build(ctx, s.Conf, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("wiretap: building bridge transport: %w", err)
	}

	return NewBridge(tr.Publisher, s.Conf.BroadcastTopic, s.Logger)
}

func (s *System) serveMetrics() {
	if s.Conf.MetricsPort <= 0 {
		return
	}
	addr := fmt.Sprintf(":%d", s.Conf.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.Logger.Info("Starting metrics server", loggingpkg.LogFields{"address": addr})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			s.Logger.Error("Failed to start metrics server", err, loggingpkg.LogFields{"address": addr})
		}
	}()
}

// Registry returns the discovery surface this system installs against.
func (s *System) Registry() registrypkg.Registry { return s.reg }

// Bridge returns the event bridge, or nil when broadcasting is disabled.
func (s *System) Bridge() *Bridge { return s.bridge }

// Spawn starts a process configured with the system's clock, logger, and
// mailbox size.
func (s *System) Spawn(name string, b procpkg.Behavior, opts ...procpkg.SpawnOption) *procpkg.Ref {
	defaults := []procpkg.SpawnOption{
		procpkg.WithMailboxSize(s.Conf.MailboxSize),
		procpkg.WithClock(s.clock),
		procpkg.WithLogger(s.Logger),
	}
	return procpkg.Spawn(name, b, append(defaults, opts...)...)
}
