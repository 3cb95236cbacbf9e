package models

import (
	"errors"
	"strings"
)

// StepList is the ordered list of browser instructions produced by step
// synthesis. Insertion order is execution order.
type StepList []string

var (
	ErrNoSteps        = errors.New("step list is empty")
	ErrBlankStep      = errors.New("step list contains a blank step")
	ErrNonStringSteps = errors.New("all action steps must be strings")
)

// CheckRawSteps rejects a decoded steps payload whose top-level entries are
// not strings. Flattening tolerates nested junk from model output; steps
// supplied directly by a caller do not get that leniency.
func CheckRawSteps(raw []any) error {
	for _, item := range raw {
		if _, ok := item.(string); !ok {
			return ErrNonStringSteps
		}
	}

	return nil
}

// FlattenSteps normalizes a decoded steps payload into a flat list of
// instruction strings. Language-model output occasionally wraps a step in a
// one-element sub-array; the first element of such a sub-array is taken and
// anything that is not a non-blank string is discarded. Flattening an already
// flat list of strings returns it unchanged.
func FlattenSteps(raw []any) StepList {
	steps := make(StepList, 0, len(raw))

	for _, item := range raw {
		if sub, ok := item.([]any); ok {
			if len(sub) == 0 {
				continue
			}

			item = sub[0]
		}

		step, ok := item.(string)
		if !ok || strings.TrimSpace(step) == "" {
			continue
		}

		steps = append(steps, step)
	}

	return steps
}

// Validate reports whether the list is a usable execution input: non-empty,
// every entry a non-blank string.
func (s StepList) Validate() error {
	if len(s) == 0 {
		return ErrNoSteps
	}

	for _, step := range s {
		if strings.TrimSpace(step) == "" {
			return ErrBlankStep
		}
	}

	return nil
}

// ComposeTask joins the steps into the single ordered task description handed
// to the browser agent: one header line followed by exactly one line per step.
// The agent receives the whole routine at once so it can carry context between
// steps itself.
func (s StepList) ComposeTask() string {
	var b strings.Builder

	b.WriteString("Execute the following browser automation steps in sequence:")

	for _, step := range s {
		b.WriteString("\n- ")
		b.WriteString(step)
	}

	return b.String()
}
