package errors

import sterrors "errors"

var (
	// ErrTargetNotFound is reported when no process is bound under the
	// requested name at install time.
	ErrTargetNotFound = sterrors.New("wiretap: no process bound under target name")

	// ErrBindFailed is reported when the installer lost the race to claim
	// the registry name, or the registry rejected the bind.
	ErrBindFailed = sterrors.New("wiretap: failed to claim registry name")

	// ErrAlreadyRunning is reported when a watcher is already registered
	// under the requested name.
	ErrAlreadyRunning = sterrors.New("wiretap: watcher already running under this name")

	ErrNameRequired      = sterrors.New("wiretap: service name is required")
	ErrClientRequired    = sterrors.New("wiretap: client process is required")
	ErrHandlerRequired   = sterrors.New("wiretap: handler is required")
	ErrConfigRequired    = sterrors.New("wiretap: config is required")
	ErrLoggerRequired    = sterrors.New("wiretap: logger is required")
	ErrPublisherRequired = sterrors.New("wiretap: publisher is required")
	ErrTopicRequired     = sterrors.New("wiretap: topic is required")
)
