package runtime

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/wiretap/internal/runtime/errors"
	idspkg "github.com/drblury/wiretap/internal/runtime/ids"
	jsoncodec "github.com/drblury/wiretap/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/wiretap/internal/runtime/logging"
)

// MetadataKeyEventSchema names the payload type carried by bridge messages.
const MetadataKeyEventSchema = "wiretap_event_schema"

// Bridge republishes observed load events onto a Watermill topic so
// consumers outside the process can follow module loads.
type Bridge struct {
	publisher message.Publisher
	topic     string
	log       loggingpkg.ServiceLogger
}

// NewBridge wraps publisher for the given topic.
func NewBridge(publisher message.Publisher, topic string, log loggingpkg.ServiceLogger) (*Bridge, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if log == nil {
		log = loggingpkg.Nop()
	}
	return &Bridge{publisher: publisher, topic: topic, log: log}, nil
}

// Topic returns the egress topic.
func (b *Bridge) Topic() string { return b.topic }

// Publish encodes event as JSON and publishes it with a fresh ULID.
func (b *Bridge) Publish(event ModuleLoaded) error {
	payload, err := jsoncodec.Marshal(event)
	if err != nil {
		return fmt.Errorf("wiretap: encoding load event: %w", err)
	}

	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata.Set(MetadataKeyEventSchema, fmt.Sprintf("%T", event))

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("wiretap: publishing load event: %w", err)
	}

	b.log.Trace("published load event", loggingpkg.LogFields{
		"topic":  b.topic,
		"module": event.Module,
	})
	return nil
}

// Close releases the underlying publisher.
func (b *Bridge) Close() error {
	return b.publisher.Close()
}
