// Package mocks provides testify mock implementations of the provider and
// event bus interfaces for tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
)

// MockVideoProvider is a mock implementation of video.Provider.
type MockVideoProvider struct {
	mock.Mock
}

func (m *MockVideoProvider) EnsureIndex(ctx context.Context, name string) (models.RemoteIndex, error) {
	args := m.Called(ctx, name)

	return args.Get(0).(models.RemoteIndex), args.Error(1)
}

func (m *MockVideoProvider) EnsureTask(ctx context.Context, index models.RemoteIndex, asset *models.VideoAsset) (models.RemoteTask, bool, error) {
	args := m.Called(ctx, index, asset)

	return args.Get(0).(models.RemoteTask), args.Bool(1), args.Error(2)
}

func (m *MockVideoProvider) WaitForTask(ctx context.Context, task models.RemoteTask, interval time.Duration, onStatus func(models.TaskStatus)) (models.RemoteTask, error) {
	args := m.Called(ctx, task, interval, onStatus)

	return args.Get(0).(models.RemoteTask), args.Error(1)
}

func (m *MockVideoProvider) Analyze(ctx context.Context, videoID string, prompt string) (<-chan streaming.TextChunk, error) {
	args := m.Called(ctx, videoID, prompt)

	if ch := args.Get(0); ch != nil {
		return ch.(<-chan streaming.TextChunk), args.Error(1)
	}

	return nil, args.Error(1)
}

// ChunkStream builds a closed chunk channel from literal chunks, for wiring
// into Analyze expectations.
func ChunkStream(chunks ...streaming.TextChunk) <-chan streaming.TextChunk {
	ch := make(chan streaming.TextChunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}

	close(ch)

	return ch
}
