package wiretap

import (
	runtimepkg "github.com/drblury/wiretap/internal/runtime"
	configpkg "github.com/drblury/wiretap/internal/runtime/config"
	errspkg "github.com/drblury/wiretap/internal/runtime/errors"
	idspkg "github.com/drblury/wiretap/internal/runtime/ids"
	jsoncodec "github.com/drblury/wiretap/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
	procpkg "github.com/drblury/wiretap/internal/runtime/proc"
	registrypkg "github.com/drblury/wiretap/internal/runtime/registry"
	transportpkg "github.com/drblury/wiretap/transport"
)

type (
	Config             = configpkg.Config
	System             = runtimepkg.System
	SystemDependencies = runtimepkg.SystemDependencies
	Watcher            = runtimepkg.Watcher
	Bridge             = runtimepkg.Bridge
	Metrics            = runtimepkg.Metrics

	// Interception surface
	Handler      = runtimepkg.Handler
	LoadOp       = runtimepkg.LoadOp
	LoadRequest  = runtimepkg.LoadRequest
	LoadReply    = runtimepkg.LoadReply
	ModuleLoaded = runtimepkg.ModuleLoaded

	// Process primitives
	Ref         = procpkg.Ref
	Envelope    = procpkg.Envelope
	Terminated  = procpkg.Terminated
	Behavior    = procpkg.Behavior
	ProcContext = procpkg.Context
	SpawnOption = procpkg.SpawnOption

	// Name registry
	Registry = registrypkg.Registry
	Table    = registrypkg.Table

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	// Modular bridge transports
	Transport             = transportpkg.Transport
	TransportBuilder      = transportpkg.Builder
	TransportConfig       = transportpkg.Config
	TransportRegistry     = transportpkg.Registry
	TransportCapabilities = transportpkg.Capabilities
)

var (
	NewSystem      = runtimepkg.NewSystem
	TryNewSystem   = runtimepkg.TryNewSystem
	ValidateConfig = configpkg.ValidateConfig

	Passthrough = runtimepkg.Passthrough
	NewBridge   = runtimepkg.NewBridge
	NewMetrics  = runtimepkg.NewMetrics

	NewTable = registrypkg.NewTable

	Spawn           = procpkg.Spawn
	WithMailboxSize = procpkg.WithMailboxSize
	WithClock       = procpkg.WithClock
	WithLogger      = procpkg.WithLogger

	// Modular transport registry. Broker-backed transports are opted into
	// by calling their Register function, e.g. kafka.Register(), or by
	// importing them for side effects where they provide an init.
	DefaultTransportRegistry = transportpkg.DefaultRegistry
	RegisterTransport        = transportpkg.Register
	BuildTransport           = transportpkg.Build
	GetTransportCapabilities = transportpkg.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrTargetNotFound    = errspkg.ErrTargetNotFound
	ErrBindFailed        = errspkg.ErrBindFailed
	ErrAlreadyRunning    = errspkg.ErrAlreadyRunning
	ErrNameRequired      = errspkg.ErrNameRequired
	ErrClientRequired    = errspkg.ErrClientRequired
	ErrHandlerRequired   = errspkg.ErrHandlerRequired
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
	ErrPublisherRequired = errspkg.ErrPublisherRequired
	ErrTopicRequired     = errspkg.ErrTopicRequired
	ErrNameTaken         = registrypkg.ErrNameTaken
	ErrDeadProcess       = registrypkg.ErrDeadProcess

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NopLogger                 = loggingpkg.Nop

	CreateULID = idspkg.CreateULID
)

// Recognised loader operations. Requests carrying any other op pass through
// the tap untouched.
const (
	LoadFile          = runtimepkg.LoadFile
	EnsureLoaded      = runtimepkg.EnsureLoaded
	LoadAbsolute      = runtimepkg.LoadAbsolute
	LoadBinary        = runtimepkg.LoadBinary
	LoadNativePartial = runtimepkg.LoadNativePartial
	LoadNativeSticky  = runtimepkg.LoadNativeSticky
)

// Config defaults, re-exported for callers that build Config by hand.
const (
	DefaultPollInterval   = configpkg.DefaultPollInterval
	DefaultMailboxSize    = configpkg.DefaultMailboxSize
	DefaultLoaderService  = configpkg.DefaultLoaderService
	DefaultBroadcastTopic = configpkg.DefaultBroadcastTopic
	DefaultPubSubSystem   = configpkg.DefaultPubSubSystem
)

// MetadataKeyEventSchema names the payload type on bridged messages.
const MetadataKeyEventSchema = runtimepkg.MetadataKeyEventSchema
