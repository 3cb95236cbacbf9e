// Package events defines the workflow execution event types relayed to
// callers over the SSE stream.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// Execution stream events, in the order a successful run produces them:
	// status, task, status, step/agent_output (repeated), complete.
	StatusEvent      EventType = "status"
	TaskEvent        EventType = "task"
	StepEvent        EventType = "step"
	AgentOutputEvent EventType = "agent_output"
	CompleteEvent    EventType = "complete"
	ErrorEvent       EventType = "error"
)

const EventTypeMetadataKey = "event_type"

const runTopicPrefix = "browsor.run."

// RunTopic returns the bus topic carrying the events of one execution run.
// Topics are per-run so concurrent executions never interleave.
func RunTopic(runID string) string {
	return runTopicPrefix + runID
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
	}
}

// Status reports pipeline progress that is not tied to a single agent step.
type Status struct {
	BaseEvent

	Message    string `json:"message"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"totalSteps"`
}

func (s Status) GetType() EventType {
	return StatusEvent
}

// Task carries the composed task description handed to the browser agent.
type Task struct {
	BaseEvent

	Message         string `json:"message"`
	TaskDescription string `json:"taskDescription"`
}

func (t Task) GetType() EventType {
	return TaskEvent
}

// Step mirrors one reasoning step of the remote agent.
type Step struct {
	BaseEvent

	Message    string          `json:"message"`
	Index      int             `json:"step"`
	TotalSteps int             `json:"totalSteps"`
	StepData   json.RawMessage `json:"stepData,omitempty"`
}

func (s Step) GetType() EventType {
	return StepEvent
}

// AgentOutput carries arbitrary intermediate output from the agent.
type AgentOutput struct {
	BaseEvent

	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (a AgentOutput) GetType() EventType {
	return AgentOutputEvent
}

// Complete is the terminal event of a successful run. It is always the last
// event on the stream.
type Complete struct {
	BaseEvent

	Message    string `json:"message"`
	Output     string `json:"output"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"totalSteps"`
}

func (c Complete) GetType() EventType {
	return CompleteEvent
}

// Error is the terminal event of a failed run.
type Error struct {
	BaseEvent

	Message    string `json:"message"`
	Error      string `json:"error"`
	Step       int    `json:"step"`
	TotalSteps int    `json:"totalSteps"`
}

func (e Error) GetType() EventType {
	return ErrorEvent
}

// Envelope is the union view of an event payload as callers decode it from
// the SSE stream. Only the fields matching Type are populated.
type Envelope struct {
	Type            EventType       `json:"type"`
	Message         string          `json:"message"`
	Step            int             `json:"step"`
	TotalSteps      int             `json:"totalSteps"`
	TaskDescription string          `json:"taskDescription,omitempty"`
	StepData        json.RawMessage `json:"stepData,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	Output          string          `json:"output,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// Terminal reports whether no further events follow this one on the stream.
func (e Envelope) Terminal() bool {
	return e.Type == CompleteEvent || e.Type == ErrorEvent
}

// DecodeEnvelope parses one relayed event payload. A payload that is not a
// JSON object with a known type field yields an error so relays can skip the
// frame instead of aborting the stream.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, err
	}

	return env, nil
}
