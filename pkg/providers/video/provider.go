// Package video defines the capability interface for video-understanding
// providers: index and ingestion-task management plus streaming analysis.
package video

import (
	"context"
	"time"

	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
)

// Provider is the boundary to a hosted video-understanding service. Handles
// are opaque and re-resolved per invocation.
type Provider interface {
	// EnsureIndex returns the index with the given name, creating it only when
	// absent. A concurrent duplicate-name create by another caller is not
	// guarded; the provider keeps both and last create wins.
	EnsureIndex(ctx context.Context, name string) (models.RemoteIndex, error)

	// EnsureTask returns the ingestion task for the asset's filename within
	// the index, creating one only when no task with that filename exists.
	// Reuse is keyed by filename, not content. The returned flag reports
	// whether an existing task was reused.
	EnsureTask(ctx context.Context, index models.RemoteIndex, asset *models.VideoAsset) (models.RemoteTask, bool, error)

	// WaitForTask polls the task at the given interval until its status is
	// terminal, invoking onStatus for every observed status.
	WaitForTask(ctx context.Context, task models.RemoteTask, interval time.Duration, onStatus func(models.TaskStatus)) (models.RemoteTask, error)

	// Analyze opens the open-ended analysis stream for an indexed video and
	// returns its text fragments in arrival order. A terminal stream failure
	// arrives as the final chunk's Err; the channel then closes.
	Analyze(ctx context.Context, videoID string, prompt string) (<-chan streaming.TextChunk, error)
}
