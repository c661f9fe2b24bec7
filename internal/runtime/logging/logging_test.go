package logging

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

type capturedLog struct {
	level  string
	msg    string
	err    error
	fields watermill.LogFields
}

type captureAdapter struct {
	base watermill.LogFields
	logs *[]capturedLog
}

func newCaptureAdapter() *captureAdapter {
	return &captureAdapter{logs: &[]capturedLog{}}
}

func (c *captureAdapter) record(level, msg string, err error, fields watermill.LogFields) {
	merged := watermill.LogFields{}
	for k, v := range c.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	*c.logs = append(*c.logs, capturedLog{level: level, msg: msg, err: err, fields: merged})
}

func (c *captureAdapter) Error(msg string, err error, fields watermill.LogFields) {
	c.record("error", msg, err, fields)
}

func (c *captureAdapter) Info(msg string, fields watermill.LogFields) {
	c.record("info", msg, nil, fields)
}

func (c *captureAdapter) Debug(msg string, fields watermill.LogFields) {
	c.record("debug", msg, nil, fields)
}

func (c *captureAdapter) Trace(msg string, fields watermill.LogFields) {
	c.record("trace", msg, nil, fields)
}

func (c *captureAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := watermill.LogFields{}
	for k, v := range c.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &captureAdapter{base: merged, logs: c.logs}
}

func TestWatermillServiceLogger(t *testing.T) {
	adapter := newCaptureAdapter()
	logger := NewWatermillServiceLogger(adapter)

	logger.Info("attached", LogFields{"service": "mods"})

	child := logger.With(LogFields{"service": "mods"})
	child.Debug("polling", LogFields{"attempt": 3})

	boom := errors.New("boom")
	child.Error("bind failed", boom, nil)

	logs := *adapter.logs
	if len(logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(logs))
	}
	if logs[0].level != "info" || logs[0].msg != "attached" {
		t.Fatalf("unexpected first log: %#v", logs[0])
	}
	if logs[1].fields["service"] != "mods" || logs[1].fields["attempt"] != 3 {
		t.Fatalf("expected merged fields on second log, got %#v", logs[1].fields)
	}
	if logs[2].level != "error" || logs[2].err != boom {
		t.Fatalf("expected error entry with boom, got %#v", logs[2])
	}
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	adapter := newCaptureAdapter()
	logger := NewWatermillServiceLogger(adapter)

	wm := NewWatermillAdapter(logger)
	wm.With(watermill.LogFields{"topic": "modules.loaded"}).Info("published", nil)

	logs := *adapter.logs
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if logs[0].fields["topic"] != "modules.loaded" {
		t.Fatalf("expected topic field to survive the round trip, got %#v", logs[0].fields)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	log := Nop()
	log.Info("ignored", nil)
	log.Error("ignored", errors.New("x"), LogFields{"k": "v"})
}
