package pipeline

import (
	"fmt"
	"strings"

	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
)

// noEdit marks the editor as having no step in edit.
const noEdit = -1

// StepEditor mutates one step list between synthesis and execution. At most
// one index is in edit at a time; starting a new edit discards the previous
// draft. Indices are stable only within one editor instance.
type StepEditor struct {
	steps   models.StepList
	editing int
	draft   string
}

func NewStepEditor(steps models.StepList) *StepEditor {
	copied := make(models.StepList, len(steps))
	copy(copied, steps)

	return &StepEditor{steps: copied, editing: noEdit}
}

// Steps returns a copy of the current list in execution order.
func (e *StepEditor) Steps() models.StepList {
	copied := make(models.StepList, len(e.steps))
	copy(copied, e.steps)

	return copied
}

// Editing returns the index currently in edit, or -1 when none is.
func (e *StepEditor) Editing() int {
	return e.editing
}

func (e *StepEditor) Draft() string {
	return e.draft
}

// StartEdit opens the step at index for editing, seeding the draft with its
// current text. Any previous edit is discarded.
func (e *StepEditor) StartEdit(index int) error {
	if index < 0 || index >= len(e.steps) {
		return fmt.Errorf("step index %d out of range", index)
	}

	e.editing = index
	e.draft = e.steps[index]

	return nil
}

// SetDraft replaces the in-edit draft text.
func (e *StepEditor) SetDraft(text string) error {
	if e.editing == noEdit {
		return fmt.Errorf("no step is being edited")
	}

	e.draft = text

	return nil
}

// SaveEdit replaces the in-edit step with the trimmed draft. An empty draft
// is rejected and the edit stays open.
func (e *StepEditor) SaveEdit() error {
	if e.editing == noEdit {
		return fmt.Errorf("no step is being edited")
	}

	text := strings.TrimSpace(e.draft)
	if text == "" {
		return models.ErrBlankStep
	}

	e.steps[e.editing] = text
	e.editing = noEdit
	e.draft = ""

	return nil
}

// CancelEdit discards the draft without touching the list.
func (e *StepEditor) CancelEdit() {
	e.editing = noEdit
	e.draft = ""
}

// Delete removes the step at index. Deleting the step in edit cancels the
// edit; deleting a step before it shifts the edit pointer down by one so it
// keeps naming the same step.
func (e *StepEditor) Delete(index int) error {
	if index < 0 || index >= len(e.steps) {
		return fmt.Errorf("step index %d out of range", index)
	}

	e.steps = append(e.steps[:index], e.steps[index+1:]...)

	switch {
	case e.editing == index:
		e.CancelEdit()
	case e.editing > index:
		e.editing--
	}

	return nil
}

// Append adds a trimmed non-empty step at the end of the list.
func (e *StepEditor) Append(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ErrBlankStep
	}

	e.steps = append(e.steps, text)

	return nil
}
