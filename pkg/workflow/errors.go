// Package workflow implements the three server-side pipeline stages: video
// analysis submission, step synthesis and workflow execution. Each stage is an
// independent failure boundary; a stage failure surfaces as one StageError and
// never advances the pipeline.
package workflow

import "errors"

type Stage string

const (
	StageAnalysis  Stage = "analysis"
	StageSynthesis Stage = "synthesis"
	StageExecution Stage = "execution"
)

// StageError is the single terminal error of one stage invocation. Message is
// safe to show to callers; the wrapped error carries the technical detail.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return string(e.Stage) + " stage failed: " + e.Message + ": " + e.Err.Error()
	}

	return string(e.Stage) + " stage failed: " + e.Message
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Detail returns the technical detail string, if any.
func (e *StageError) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return ""
}

func NewStageError(stage Stage, message string, err error) *StageError {
	return &StageError{Stage: stage, Message: message, Err: err}
}

// AsStageError unwraps err to a StageError when one is present.
func AsStageError(err error) (*StageError, bool) {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr, true
	}

	return nil, false
}
