package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/otelhelper"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
)

// RunInput is the execution request: either an ordered step list that gets
// composed into a task description, or a free-form task description directly.
// Steps take precedence when both are set.
type RunInput struct {
	Steps models.StepList
	Task  string
}

// Executor drives one browser-agent run and publishes its progress as events
// on the run's topic. The terminal event, complete or error, is always the
// last event published; no event ever follows it.
type Executor struct {
	provider  automation.Provider
	publisher eventbus.EventPublisher
	settings  config.AutomationSettings
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewExecutor(
	provider automation.Provider,
	publisher eventbus.EventPublisher,
	settings config.AutomationSettings,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Executor {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("executor")
	}

	return &Executor{
		provider:  provider,
		publisher: publisher,
		settings:  settings,
		tracer:    tracer,
		logger:    logger,
	}
}

// Run executes the input against the automation provider, publishing events
// to the run's topic as it goes. The returned error mirrors the terminal
// error event; a nil return means a complete event was published.
func (e *Executor) Run(ctx context.Context, runID string, input RunInput) error {
	task, totalSteps, err := composeTask(input)
	if err != nil {
		stageErr := NewStageError(StageExecution, "invalid execution input", err)
		e.publishError(ctx, runID, stageErr, 0, 0)

		return stageErr
	}

	runCtx, cancel := context.WithTimeout(ctx, e.settings.Timeout())
	defer cancel()

	runCtx, span := otelhelper.StartSpan(runCtx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.String(otelhelper.StageKey, string(StageExecution)),
		attribute.Int(otelhelper.TotalStepsKey, totalSteps),
	)
	defer span.End()

	logger := e.logger.With("run_id", runID, "total_steps", totalSteps)

	e.publishStatus(runCtx, runID, "Initializing browser session", 0, totalSteps)
	e.publish(runCtx, runID, events.Task{
		BaseEvent:       events.NewBaseEvent(events.TaskEvent, runID),
		Message:         "Task composed for browser agent",
		TaskDescription: task,
	})
	e.publishStatus(runCtx, runID, "Browser agent started", 1, totalSteps)

	session, err := e.provider.CreateSession(runCtx, automation.SessionOptions{
		UseProxy:     e.settings.UseProxy,
		ProxyCountry: e.settings.ProxyCountry,
		ProfileID:    e.settings.ProfileID,
	})
	if err != nil {
		stageErr := NewStageError(StageExecution, "failed to create browser session", err)
		otelhelper.SetError(span, string(StageExecution), stageErr,
			attribute.Int(otelhelper.StepIndexKey, 1))
		e.publishError(runCtx, runID, stageErr, 1, totalSteps)

		return stageErr
	}

	span.SetAttributes(attribute.String(otelhelper.SessionIDKey, session.ID))
	logger.Debug("Browser session created", "session_id", session.ID)

	defer func() {
		// Release with a fresh context so a run timeout never leaks the session.
		closeCtx, closeCancel := context.WithTimeout(context.WithoutCancel(ctx), e.settings.PollInterval())
		defer closeCancel()

		if err := e.provider.CloseSession(closeCtx, session); err != nil {
			logger.Warn("Failed to release browser session", "session_id", session.ID, "error", err)
		}
	}()

	lastStep := 1

	result, err := e.provider.Execute(runCtx, session, task, automation.Callbacks{
		OnStep: func(step automation.AgentStep) {
			lastStep = step.Index
			e.publish(runCtx, runID, events.Step{
				BaseEvent:  events.NewBaseEvent(events.StepEvent, runID),
				Message:    fmt.Sprintf("Executing step %d", step.Index),
				Index:      step.Index,
				TotalSteps: totalSteps,
				StepData:   step.Data,
			})
		},
		OnAgentOutput: func(output json.RawMessage) {
			e.publish(runCtx, runID, events.AgentOutput{
				BaseEvent: events.NewBaseEvent(events.AgentOutputEvent, runID),
				Message:   "Agent output",
				Data:      output,
			})
		},
	})
	if err != nil {
		stageErr := NewStageError(StageExecution, "browser agent execution failed", err)
		otelhelper.SetError(span, string(StageExecution), stageErr,
			attribute.Int(otelhelper.StepIndexKey, lastStep))
		e.publishError(runCtx, runID, stageErr, lastStep, totalSteps)

		return stageErr
	}

	e.publish(runCtx, runID, events.Complete{
		BaseEvent:  events.NewBaseEvent(events.CompleteEvent, runID),
		Message:    "Workflow execution completed",
		Output:     result.Output,
		Step:       totalSteps,
		TotalSteps: totalSteps,
	})

	logger.Info("Workflow execution completed")

	return nil
}

func composeTask(input RunInput) (string, int, error) {
	if len(input.Steps) > 0 {
		if err := input.Steps.Validate(); err != nil {
			return "", 0, err
		}

		return input.Steps.ComposeTask(), len(input.Steps), nil
	}

	task := strings.TrimSpace(input.Task)
	if task == "" {
		return "", 0, models.ErrNoSteps
	}

	// A free-form task counts as one step so progress fields stay non-zero.
	return task, 1, nil
}

func (e *Executor) publishStatus(ctx context.Context, runID, message string, step, totalSteps int) {
	e.publish(ctx, runID, events.Status{
		BaseEvent:  events.NewBaseEvent(events.StatusEvent, runID),
		Message:    message,
		Step:       step,
		TotalSteps: totalSteps,
	})
}

func (e *Executor) publishError(ctx context.Context, runID string, stageErr *StageError, step, totalSteps int) {
	e.publish(ctx, runID, events.Error{
		BaseEvent:  events.NewBaseEvent(events.ErrorEvent, runID),
		Message:    stageErr.Message,
		Error:      stageErr.Error(),
		Step:       step,
		TotalSteps: totalSteps,
	})
}

func (e *Executor) publish(ctx context.Context, runID string, event eventbus.Event) {
	// Publishing with the parent context so the terminal event still goes out
	// when the run context is already done.
	if err := e.publisher.Publish(context.WithoutCancel(ctx), events.RunTopic(runID), event); err != nil {
		e.logger.Error("Failed to publish run event",
			"run_id", runID, "event_type", event.GetType(), "error", err)
	}
}
