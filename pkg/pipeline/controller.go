package pipeline

import (
	"fmt"

	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
)

// Controller sequences the three stages: synthesis only after the analysis
// stream has fully ended, execution only after an explicit confirmation of
// the edited steps. The controller is single-flow; it is never driven
// concurrently.
type Controller struct {
	analysis  *AnalysisTrack
	execution *ExecutionTrack
	editor    *StepEditor
}

func NewController() *Controller {
	return &Controller{
		analysis:  NewAnalysisTrack(),
		execution: NewExecutionTrack(),
	}
}

func (c *Controller) Analysis() *AnalysisTrack {
	return c.analysis
}

func (c *Controller) Execution() *ExecutionTrack {
	return c.execution
}

// Editor returns the step editor, nil until steps have been set.
func (c *Controller) Editor() *StepEditor {
	return c.editor
}

// SubmitVideo starts a fresh pipeline run. Steps and execution state from a
// previous run are discarded.
func (c *Controller) SubmitVideo() error {
	if c.execution.State() == ExecutionRunning {
		return fmt.Errorf("cannot submit while an execution is running")
	}

	if err := c.analysis.Submit(); err != nil {
		return err
	}

	c.editor = nil
	*c.execution = *NewExecutionTrack()

	return nil
}

func (c *Controller) OnAnalysisChunk(text string) error {
	return c.analysis.ChunkReceived(text)
}

func (c *Controller) OnAnalysisEnd() error {
	return c.analysis.StreamEnded()
}

func (c *Controller) OnAnalysisError(err error) {
	c.analysis.Fail(err)
}

// CanSynthesize reports whether the synthesis stage may start. It requires
// the analysis stream to have ended with text.
func (c *Controller) CanSynthesize() bool {
	return c.analysis.State() == AnalysisComplete && c.analysis.Text() != ""
}

// SetSteps installs the synthesized steps and opens them for editing.
func (c *Controller) SetSteps(steps models.StepList) error {
	if !c.CanSynthesize() {
		return fmt.Errorf("cannot set steps before analysis completes")
	}

	if c.execution.State() == ExecutionRunning {
		return fmt.Errorf("cannot set steps while an execution is running")
	}

	if err := steps.Validate(); err != nil {
		return err
	}

	c.editor = NewStepEditor(steps)

	return nil
}

// Confirm validates the edited steps and starts the execution track. An open
// step edit must be saved or cancelled first.
func (c *Controller) Confirm() (models.StepList, error) {
	if c.editor == nil {
		return nil, fmt.Errorf("no steps to execute")
	}

	if c.editor.Editing() != noEdit {
		return nil, fmt.Errorf("a step edit is still open")
	}

	steps := c.editor.Steps()
	if err := steps.Validate(); err != nil {
		return nil, err
	}

	if err := c.execution.Confirm(); err != nil {
		return nil, err
	}

	return steps, nil
}

// OnExecutionEvent applies one relayed run event to the execution track.
func (c *Controller) OnExecutionEvent(env events.Envelope) error {
	return c.execution.OnEvent(env)
}

// CanExpandAnalysis reports whether the analysis section may be opened.
func (c *Controller) CanExpandAnalysis() bool {
	return c.analysis.CanExpand()
}

// CanExpandSteps reports whether the steps section may be opened.
func (c *Controller) CanExpandSteps() bool {
	return c.editor != nil
}

// CanExpandExecution reports whether the execution section may be opened.
func (c *Controller) CanExpandExecution() bool {
	return c.execution.CanExpand()
}
