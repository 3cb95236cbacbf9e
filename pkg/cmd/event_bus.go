// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/hireshBrem/browsor-ai-agent/pkg/channels/gochannel"
	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
)

// NewEventBus creates the in-process event bus carrying run events from the
// executor to the SSE relays.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		panic(err)
	}

	return eventbus.NewWatermillEventBus(pub, sub)
}
