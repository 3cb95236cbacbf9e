package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/video"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
)

// Analyzer is the video analysis submitter: it resolves or creates the remote
// index and ingestion task for one video, waits for ingestion to finish and
// relays the provider's analysis stream chunk by chunk.
type Analyzer struct {
	provider video.Provider
	settings config.VideoSettings
	logger   *slog.Logger
}

func NewAnalyzer(provider video.Provider, settings config.VideoSettings, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		settings: settings,
		logger:   logger,
	}
}

// Run submits the asset and returns the ordered analysis chunk stream. An
// error return means the stage failed before any text was produced; once a
// channel is returned, failures arrive in-band as the final chunk's Err.
// Remote index/task resources created here are provider-visible side effects
// and are not rolled back on cancellation.
func (a *Analyzer) Run(ctx context.Context, asset *models.VideoAsset) (<-chan streaming.TextChunk, error) {
	if err := asset.Validate(); err != nil {
		return nil, NewStageError(StageAnalysis, "invalid video asset", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, a.settings.Timeout())

	logger := a.logger.With("filename", asset.Name)

	index, err := a.provider.EnsureIndex(runCtx, a.settings.IndexName)
	if err != nil {
		cancel()

		return nil, NewStageError(StageAnalysis, "failed to resolve video index", err)
	}

	task, reused, err := a.provider.EnsureTask(runCtx, index, asset)
	if err != nil {
		cancel()

		return nil, NewStageError(StageAnalysis, "failed to resolve ingestion task", err)
	}

	if reused {
		// Reuse is keyed by filename only, not content. A different recording
		// uploaded under the same name silently reuses the stale ingestion.
		logger.Warn("Reusing existing ingestion task for filename", "task_id", task.ID)
	}

	task, err = a.provider.WaitForTask(runCtx, task, a.settings.PollInterval(), func(status models.TaskStatus) {
		logger.Debug("Ingestion status", "task_id", task.ID, "status", status)
	})
	if err != nil {
		cancel()

		return nil, NewStageError(StageAnalysis, "ingestion did not finish", err)
	}

	if task.Status != models.TaskStatusReady {
		cancel()

		return nil, NewStageError(StageAnalysis,
			fmt.Sprintf("indexing failed with status %s", task.Status), nil)
	}

	upstream, err := a.provider.Analyze(runCtx, task.VideoID, a.settings.AnalysisPrompt)
	if err != nil {
		cancel()

		return nil, NewStageError(StageAnalysis, "failed to open analysis stream", err)
	}

	// The provider closes upstream after a terminal Err chunk, so the pump
	// winds down on its own; stop releases the stage timeout.
	out := streaming.Pump(runCtx, upstream, cancel, func(chunk streaming.TextChunk) (streaming.TextChunk, bool) {
		return chunk, chunk.Err != nil || chunk.Text != ""
	})

	return out, nil
}
