// Package eventbus carries workflow run events between the executor and the
// caller-facing stream relays.
package eventbus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
)

// Event is anything the executor can publish on a run topic.
type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

type EventSubscriber interface {
	// Subscribe returns the ordered message stream of one topic. The channel
	// closes when ctx is done or the bus is closed. Consumers must Ack every
	// message to receive the next one.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
