// Package pipeline implements the caller-local pipeline state machine: one
// tagged state per track, a step editor with a single edit pointer and a
// controller enforcing the stage sequencing rules.
package pipeline

import (
	"fmt"

	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
)

type AnalysisState string

const (
	AnalysisIdle       AnalysisState = "idle"
	AnalysisProcessing AnalysisState = "processing"
	AnalysisAnalyzing  AnalysisState = "analyzing"
	AnalysisComplete   AnalysisState = "complete"
	AnalysisError      AnalysisState = "error"
)

type ExecutionState string

const (
	ExecutionIdle     ExecutionState = "idle"
	ExecutionRunning  ExecutionState = "running"
	ExecutionComplete ExecutionState = "complete"
	ExecutionError    ExecutionState = "error"
)

// AnalysisTrack holds the analysis-stage state and the accumulating result.
// Terminal states are complete and error; only a fresh Submit leaves them.
type AnalysisTrack struct {
	state  AnalysisState
	result *models.AnalysisResult
	err    error
}

func NewAnalysisTrack() *AnalysisTrack {
	return &AnalysisTrack{state: AnalysisIdle}
}

func (t *AnalysisTrack) State() AnalysisState {
	return t.state
}

func (t *AnalysisTrack) Err() error {
	return t.err
}

// Text returns the analysis text accumulated so far.
func (t *AnalysisTrack) Text() string {
	if t.result == nil {
		return ""
	}

	return t.result.Text()
}

// Submit starts a fresh analysis invocation, discarding any previous result.
func (t *AnalysisTrack) Submit() error {
	if t.state == AnalysisProcessing || t.state == AnalysisAnalyzing {
		return fmt.Errorf("cannot submit while analysis is %s", t.state)
	}

	t.state = AnalysisProcessing
	t.result = &models.AnalysisResult{}
	t.err = nil

	return nil
}

// ChunkReceived appends one stream chunk. The first chunk moves the track
// from processing to analyzing.
func (t *AnalysisTrack) ChunkReceived(text string) error {
	switch t.state {
	case AnalysisProcessing:
		t.state = AnalysisAnalyzing
	case AnalysisAnalyzing:
	default:
		return fmt.Errorf("cannot receive analysis chunk in state %s", t.state)
	}

	t.result.Append(text)

	return nil
}

// StreamEnded seals the result. A stream that ends without producing any
// chunk still completes, with empty text.
func (t *AnalysisTrack) StreamEnded() error {
	switch t.state {
	case AnalysisProcessing, AnalysisAnalyzing:
	default:
		return fmt.Errorf("cannot end analysis stream in state %s", t.state)
	}

	t.result.Complete()
	t.state = AnalysisComplete

	return nil
}

// Fail moves the track to its terminal error state.
func (t *AnalysisTrack) Fail(err error) {
	if t.result != nil {
		t.result.Fail(err)
	}

	t.state = AnalysisError
	t.err = err
}

// CanExpand reports whether the analysis section may be opened. Sections stay
// closed while their track is in a transient state so partially-populated
// data is never interacted with.
func (t *AnalysisTrack) CanExpand() bool {
	return t.state == AnalysisAnalyzing || t.state == AnalysisComplete || t.state == AnalysisError
}

// ExecutionTrack holds the execution-stage state, fed by relayed run events.
type ExecutionTrack struct {
	state  ExecutionState
	output string
	errMsg string
}

func NewExecutionTrack() *ExecutionTrack {
	return &ExecutionTrack{state: ExecutionIdle}
}

func (t *ExecutionTrack) State() ExecutionState {
	return t.state
}

// Output returns the agent's final result, set on completion.
func (t *ExecutionTrack) Output() string {
	return t.output
}

func (t *ExecutionTrack) ErrMessage() string {
	return t.errMsg
}

// Confirm starts an execution. Only one execution runs per invocation; a
// terminal track must be Reset before confirming again.
func (t *ExecutionTrack) Confirm() error {
	if t.state != ExecutionIdle {
		return fmt.Errorf("cannot confirm execution in state %s", t.state)
	}

	t.state = ExecutionRunning

	return nil
}

// OnEvent applies one relayed run event. Non-terminal events are progress
// only; complete and error are terminal for this invocation.
func (t *ExecutionTrack) OnEvent(env events.Envelope) error {
	if t.state != ExecutionRunning {
		return fmt.Errorf("cannot apply event in state %s", t.state)
	}

	switch env.Type {
	case events.CompleteEvent:
		t.state = ExecutionComplete
		t.output = env.Output
	case events.ErrorEvent:
		t.state = ExecutionError
		t.errMsg = env.Error
	}

	return nil
}

// Reset returns a terminal track to idle for a fresh invocation.
func (t *ExecutionTrack) Reset() error {
	if t.state == ExecutionRunning {
		return fmt.Errorf("cannot reset a running execution")
	}

	*t = ExecutionTrack{state: ExecutionIdle}

	return nil
}

func (t *ExecutionTrack) CanExpand() bool {
	return t.state != ExecutionIdle
}
