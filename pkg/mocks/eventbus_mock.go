package mocks

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/mock"

	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
)

// MockEventBus is a mock implementation of eventbus.EventBus.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, topic string, event eventbus.Event) error {
	args := m.Called(ctx, topic, event)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	args := m.Called(ctx, topic)

	if ch := args.Get(0); ch != nil {
		return ch.(<-chan *message.Message), args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}
