package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hireshBrem/browsor-ai-agent/pkg/channels/gochannel"
	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/mocks"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
	"github.com/hireshBrem/browsor-ai-agent/pkg/workflow"
)

func testAutomationSettings() config.AutomationSettings {
	return config.AutomationSettings{
		Provider:            config.ProviderHyperbrowser,
		UseProxy:            true,
		ProxyCountry:        "us",
		PollIntervalSeconds: 1,
		TimeoutSeconds:      5,
	}
}

// collectRunEvents subscribes to the run topic and drains it until the
// terminal event or the timeout.
func collectRunEvents(t *testing.T, bus eventbus.EventBus, runID string) func() []events.Envelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	messages, err := bus.Subscribe(ctx, events.RunTopic(runID))
	require.NoError(t, err)

	done := make(chan []events.Envelope, 1)

	go func() {
		defer cancel()

		var collected []events.Envelope

		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					done <- collected

					return
				}

				env, err := events.DecodeEnvelope(msg.Payload)
				msg.Ack()

				if err != nil {
					continue
				}

				collected = append(collected, env)

				if env.Terminal() {
					done <- collected

					return
				}
			case <-ctx.Done():
				done <- collected

				return
			}
		}
	}()

	return func() []events.Envelope {
		t.Helper()

		select {
		case collected := <-done:
			return collected
		case <-time.After(10 * time.Second):
			t.Fatal("timed out collecting run events")

			return nil
		}
	}
}

func setupExecutorTest(t *testing.T, provider automation.Provider) (*workflow.Executor, eventbus.EventBus) {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	executor := workflow.NewExecutor(provider, bus, testAutomationSettings(), nil, slog.Default())

	return executor, bus
}

func TestExecutorRunEmitsEventsInOrder(t *testing.T) {
	t.Parallel()

	session := &models.RemoteSession{ID: "session-1"}
	steps := models.StepList{"Go to https://example.com", "Click login", "Fill the form"}

	provider := new(mocks.MockAutomationProvider)
	provider.On("CreateSession", mock.Anything, mock.Anything).Return(session, nil)
	provider.On("Execute", mock.Anything, session, steps.ComposeTask(), mock.Anything).
		Run(func(args mock.Arguments) {
			cb := args.Get(3).(automation.Callbacks)
			for i := 1; i <= 3; i++ {
				cb.OnStep(automation.AgentStep{Index: i, Data: json.RawMessage(`{"ok":true}`)})
			}
		}).
		Return(&automation.Result{Output: "Task completed successfully"}, nil)
	provider.On("CloseSession", mock.Anything, session).Return(nil)

	executor, bus := setupExecutorTest(t, provider)
	wait := collectRunEvents(t, bus, "run-ok")

	err := executor.Run(context.Background(), "run-ok", workflow.RunInput{Steps: steps})
	require.NoError(t, err)

	collected := wait()
	require.Len(t, collected, 7)

	types := make([]events.EventType, 0, len(collected))
	for _, env := range collected {
		types = append(types, env.Type)
	}

	assert.Equal(t, []events.EventType{
		events.StatusEvent,
		events.TaskEvent,
		events.StatusEvent,
		events.StepEvent,
		events.StepEvent,
		events.StepEvent,
		events.CompleteEvent,
	}, types)

	assert.Equal(t, 0, collected[0].Step)
	assert.Contains(t, collected[1].TaskDescription, "- Click login")
	assert.Equal(t, 1, collected[2].Step)

	for i, env := range collected[3:6] {
		assert.Equal(t, i+1, env.Step)
		assert.Equal(t, 3, env.TotalSteps)
	}

	terminal := collected[len(collected)-1]
	assert.Equal(t, events.CompleteEvent, terminal.Type)
	assert.Equal(t, 3, terminal.Step)
	assert.Equal(t, 3, terminal.TotalSteps)
	assert.Equal(t, "Task completed successfully", terminal.Output)

	provider.AssertExpectations(t)
}

func TestExecutorRunSessionFailureEmitsTerminalError(t *testing.T) {
	t.Parallel()

	provider := new(mocks.MockAutomationProvider)
	provider.On("CreateSession", mock.Anything, mock.Anything).
		Return(nil, errors.New("quota exceeded"))

	executor, bus := setupExecutorTest(t, provider)
	wait := collectRunEvents(t, bus, "run-session-fail")

	err := executor.Run(context.Background(), "run-session-fail", workflow.RunInput{
		Steps: models.StepList{"Click login"},
	})
	require.Error(t, err)

	collected := wait()
	require.NotEmpty(t, collected)

	terminal := collected[len(collected)-1]
	assert.Equal(t, events.ErrorEvent, terminal.Type)
	assert.Contains(t, terminal.Error, "quota exceeded")

	provider.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "CloseSession", mock.Anything, mock.Anything)
}

func TestExecutorRunReleasesSessionOnExecuteFailure(t *testing.T) {
	t.Parallel()

	session := &models.RemoteSession{ID: "session-1"}

	provider := new(mocks.MockAutomationProvider)
	provider.On("CreateSession", mock.Anything, mock.Anything).Return(session, nil)
	provider.On("Execute", mock.Anything, session, mock.Anything, mock.Anything).
		Return(nil, errors.New("agent crashed"))
	provider.On("CloseSession", mock.Anything, session).Return(nil)

	executor, bus := setupExecutorTest(t, provider)
	wait := collectRunEvents(t, bus, "run-exec-fail")

	err := executor.Run(context.Background(), "run-exec-fail", workflow.RunInput{
		Steps: models.StepList{"Click login"},
	})
	require.Error(t, err)

	collected := wait()
	terminal := collected[len(collected)-1]
	assert.Equal(t, events.ErrorEvent, terminal.Type)

	provider.AssertCalled(t, "CloseSession", mock.Anything, session)
}

func TestExecutorRunRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	provider := new(mocks.MockAutomationProvider)
	executor, bus := setupExecutorTest(t, provider)
	wait := collectRunEvents(t, bus, "run-empty")

	err := executor.Run(context.Background(), "run-empty", workflow.RunInput{})
	require.Error(t, err)

	stageErr, ok := workflow.AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, workflow.StageExecution, stageErr.Stage)

	collected := wait()
	require.NotEmpty(t, collected)
	assert.Equal(t, events.ErrorEvent, collected[len(collected)-1].Type)

	provider.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestExecutorRunTaskOnlyInput(t *testing.T) {
	t.Parallel()

	session := &models.RemoteSession{ID: "session-1"}

	provider := new(mocks.MockAutomationProvider)
	provider.On("CreateSession", mock.Anything, mock.Anything).Return(session, nil)
	provider.On("Execute", mock.Anything, session, "Log in to the dashboard", mock.Anything).
		Return(&automation.Result{Output: "done"}, nil)
	provider.On("CloseSession", mock.Anything, session).Return(nil)

	executor, bus := setupExecutorTest(t, provider)
	wait := collectRunEvents(t, bus, "run-task")

	err := executor.Run(context.Background(), "run-task", workflow.RunInput{Task: "Log in to the dashboard"})
	require.NoError(t, err)

	collected := wait()
	terminal := collected[len(collected)-1]
	assert.Equal(t, events.CompleteEvent, terminal.Type)
	assert.Equal(t, "done", terminal.Output)

	// A free-form task is accounted as a single step.
	assert.Equal(t, 1, terminal.Step)
	assert.Equal(t, 1, terminal.TotalSteps)
}
