// Package automation defines the capability interface for browser-driving
// agents: session lifecycle plus task execution with observable progress.
package automation

import (
	"context"
	"encoding/json"

	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
)

// SessionOptions are the static session settings agreed up front; they are
// not part of the per-request contract.
type SessionOptions struct {
	UseProxy     bool
	ProxyCountry string
	ProfileID    string
}

// AgentStep is one reasoning step reported by the agent while executing.
type AgentStep struct {
	Index int
	Data  json.RawMessage
}

// Callbacks make one long-running agent execution observable as incremental
// progress. Both callbacks are invoked serially, before Execute returns.
type Callbacks struct {
	OnStep        func(step AgentStep)
	OnAgentOutput func(output json.RawMessage)
}

// Result is the agent's terminal success payload.
type Result struct {
	Output string
	Data   json.RawMessage
}

// Provider is the boundary to a browser-automation agent. One session
// supports one in-flight execution at a time; the caller owns the session
// lifecycle end to end.
type Provider interface {
	CreateSession(ctx context.Context, opts SessionOptions) (*models.RemoteSession, error)

	// Execute drives the agent through the composed task description and
	// blocks until the agent finishes, relaying progress through cb.
	Execute(ctx context.Context, session *models.RemoteSession, task string, cb Callbacks) (*Result, error)

	// CloseSession releases the session. It is safe to call after a failed
	// Execute; acquired resources are released on both paths.
	CloseSession(ctx context.Context, session *models.RemoteSession) error
}
