package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/mocks"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
	"github.com/hireshBrem/browsor-ai-agent/pkg/workflow"
)

func testVideoSettings() config.VideoSettings {
	return config.VideoSettings{
		IndexName:           "test-index",
		AnalysisPrompt:      "Explain what is going on in the screen recording video.",
		PollIntervalSeconds: 1,
		TimeoutSeconds:      5,
	}
}

func testAsset() *models.VideoAsset {
	return models.NewVideoAsset("recording.mp4", "video/mp4", []byte("frames"))
}

func readyTask() models.RemoteTask {
	return models.RemoteTask{ID: "task-1", VideoID: "video-1", Status: models.TaskStatusReady}
}

func TestAnalyzerRunRelaysChunksInOrder(t *testing.T) {
	t.Parallel()

	provider := new(mocks.MockVideoProvider)
	provider.On("EnsureIndex", mock.Anything, "test-index").
		Return(models.RemoteIndex{ID: "idx-1", Name: "test-index"}, nil)
	provider.On("EnsureTask", mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), false, nil)
	provider.On("WaitForTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), nil)
	provider.On("Analyze", mock.Anything, "video-1", mock.Anything).
		Return(mocks.ChunkStream(
			streaming.TextChunk{Text: "The user opens "},
			streaming.TextChunk{Text: "the login page."},
		), nil)

	analyzer := workflow.NewAnalyzer(provider, testVideoSettings(), slog.Default())

	chunks, err := analyzer.Run(context.Background(), testAsset())
	require.NoError(t, err)

	var texts []string
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		texts = append(texts, chunk.Text)
	}

	assert.Equal(t, []string{"The user opens ", "the login page."}, texts)
	provider.AssertExpectations(t)
}

func TestAnalyzerRunFailedIngestionAbortsBeforeAnyChunk(t *testing.T) {
	t.Parallel()

	failed := models.RemoteTask{ID: "task-1", VideoID: "video-1", Status: models.TaskStatusFailed}

	provider := new(mocks.MockVideoProvider)
	provider.On("EnsureIndex", mock.Anything, mock.Anything).
		Return(models.RemoteIndex{ID: "idx-1"}, nil)
	provider.On("EnsureTask", mock.Anything, mock.Anything, mock.Anything).
		Return(failed, false, nil)
	provider.On("WaitForTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(failed, nil)

	analyzer := workflow.NewAnalyzer(provider, testVideoSettings(), slog.Default())

	chunks, err := analyzer.Run(context.Background(), testAsset())
	require.Error(t, err)
	assert.Nil(t, chunks)

	stageErr, ok := workflow.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, workflow.StageAnalysis, stageErr.Stage)
	assert.Contains(t, stageErr.Message, "failed")

	provider.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzerRunReusesExistingTask(t *testing.T) {
	t.Parallel()

	provider := new(mocks.MockVideoProvider)
	provider.On("EnsureIndex", mock.Anything, mock.Anything).
		Return(models.RemoteIndex{ID: "idx-1"}, nil)
	provider.On("EnsureTask", mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), true, nil)
	provider.On("WaitForTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), nil)
	provider.On("Analyze", mock.Anything, "video-1", mock.Anything).
		Return(mocks.ChunkStream(streaming.TextChunk{Text: "cached analysis"}), nil)

	analyzer := workflow.NewAnalyzer(provider, testVideoSettings(), slog.Default())

	chunks, err := analyzer.Run(context.Background(), testAsset())
	require.NoError(t, err)

	var texts []string
	for chunk := range chunks {
		texts = append(texts, chunk.Text)
	}

	assert.Equal(t, []string{"cached analysis"}, texts)
}

func TestAnalyzerRunIndexLookupFailure(t *testing.T) {
	t.Parallel()

	provider := new(mocks.MockVideoProvider)
	provider.On("EnsureIndex", mock.Anything, mock.Anything).
		Return(models.RemoteIndex{}, errors.New("connection refused"))

	analyzer := workflow.NewAnalyzer(provider, testVideoSettings(), slog.Default())

	chunks, err := analyzer.Run(context.Background(), testAsset())
	require.Error(t, err)
	assert.Nil(t, chunks)

	stageErr, ok := workflow.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, workflow.StageAnalysis, stageErr.Stage)
}

func TestAnalyzerRunStreamErrorArrivesInBand(t *testing.T) {
	t.Parallel()

	streamErr := errors.New("stream reset")

	provider := new(mocks.MockVideoProvider)
	provider.On("EnsureIndex", mock.Anything, mock.Anything).
		Return(models.RemoteIndex{ID: "idx-1"}, nil)
	provider.On("EnsureTask", mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), false, nil)
	provider.On("WaitForTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), nil)
	provider.On("Analyze", mock.Anything, "video-1", mock.Anything).
		Return(mocks.ChunkStream(
			streaming.TextChunk{Text: "partial"},
			streaming.TextChunk{Err: streamErr},
		), nil)

	analyzer := workflow.NewAnalyzer(provider, testVideoSettings(), slog.Default())

	chunks, err := analyzer.Run(context.Background(), testAsset())
	require.NoError(t, err)

	var got []streaming.TextChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "partial", got[0].Text)
	assert.ErrorIs(t, got[1].Err, streamErr)
}

func TestAnalyzerRunDropsEmptyChunks(t *testing.T) {
	t.Parallel()

	provider := new(mocks.MockVideoProvider)
	provider.On("EnsureIndex", mock.Anything, mock.Anything).
		Return(models.RemoteIndex{ID: "idx-1"}, nil)
	provider.On("EnsureTask", mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), false, nil)
	provider.On("WaitForTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(readyTask(), nil)
	provider.On("Analyze", mock.Anything, "video-1", mock.Anything).
		Return(mocks.ChunkStream(
			streaming.TextChunk{Text: ""},
			streaming.TextChunk{Text: "the login page."},
			streaming.TextChunk{Text: ""},
		), nil)

	analyzer := workflow.NewAnalyzer(provider, testVideoSettings(), slog.Default())

	chunks, err := analyzer.Run(context.Background(), testAsset())
	require.NoError(t, err)

	var texts []string
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		texts = append(texts, chunk.Text)
	}

	assert.Equal(t, []string{"the login page."}, texts)
}

func TestAnalyzerRunRejectsInvalidAsset(t *testing.T) {
	t.Parallel()

	analyzer := workflow.NewAnalyzer(new(mocks.MockVideoProvider), testVideoSettings(), slog.Default())

	_, err := analyzer.Run(context.Background(), &models.VideoAsset{})
	require.Error(t, err)

	stageErr, ok := workflow.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, workflow.StageAnalysis, stageErr.Stage)
}
