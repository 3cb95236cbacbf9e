// Package hyperbrowser implements the automation provider boundary against
// the Hyperbrowser REST API. Agent progress is observed by polling the task
// resource and relaying newly appeared steps.
package hyperbrowser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
)

type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewClient(settings config.AutomationSettings, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      settings.BaseURL,
		apiKey:       apiKey,
		pollInterval: settings.PollInterval(),
		httpClient:   &http.Client{},
		logger:       logger,
	}
}

var _ automation.Provider = (*Client)(nil)

type sessionResource struct {
	ID         string `json:"id"`
	WSEndpoint string `json:"wsEndpoint"`
	LiveURL    string `json:"liveUrl"`
}

type taskResource struct {
	JobID  string    `json:"jobId"`
	Status string    `json:"status"`
	Error  string    `json:"error"`
	Data   *taskData `json:"data"`
}

type taskData struct {
	Steps       []json.RawMessage `json:"steps"`
	FinalResult string            `json:"finalResult"`
}

func (c *Client) CreateSession(ctx context.Context, opts automation.SessionOptions) (*models.RemoteSession, error) {
	body := map[string]any{}

	if opts.UseProxy {
		body["useProxy"] = true

		if opts.ProxyCountry != "" {
			body["proxyCountry"] = opts.ProxyCountry
		}
	}

	if opts.ProfileID != "" {
		body["profile"] = map[string]any{"id": opts.ProfileID}
	}

	var created sessionResource
	if err := c.postJSON(ctx, "/api/session", body, &created); err != nil {
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}

	c.logger.Info("Created browser session", "session_id", created.ID)

	return &models.RemoteSession{
		ID:         created.ID,
		WSEndpoint: created.WSEndpoint,
		LiveURL:    created.LiveURL,
	}, nil
}

func (c *Client) Execute(ctx context.Context, session *models.RemoteSession, task string, cb automation.Callbacks) (*automation.Result, error) {
	body := map[string]any{
		"task":      task,
		"sessionId": session.ID,
	}

	var started taskResource
	if err := c.postJSON(ctx, "/api/task/browser-use", body, &started); err != nil {
		return nil, fmt.Errorf("failed to start browser agent: %w", err)
	}

	return c.waitForTask(ctx, started.JobID, cb)
}

// waitForTask polls the agent task and relays each newly observed step
// through the callbacks until the task reaches a terminal status.
func (c *Client) waitForTask(ctx context.Context, jobID string, cb automation.Callbacks) (*automation.Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	seenSteps := 0

	for {
		var current taskResource
		if err := c.getJSON(ctx, "/api/task/browser-use/"+jobID, &current); err != nil {
			return nil, fmt.Errorf("failed to poll browser agent task %s: %w", jobID, err)
		}

		if current.Data != nil {
			for ; seenSteps < len(current.Data.Steps); seenSteps++ {
				step := current.Data.Steps[seenSteps]

				if cb.OnStep != nil {
					cb.OnStep(automation.AgentStep{Index: seenSteps + 1, Data: step})
				}

				if cb.OnAgentOutput != nil {
					cb.OnAgentOutput(step)
				}
			}
		}

		switch current.Status {
		case "completed":
			result := &automation.Result{Output: "Task completed successfully"}

			if current.Data != nil {
				if current.Data.FinalResult != "" {
					result.Output = current.Data.FinalResult
				}

				if data, err := json.Marshal(current.Data); err == nil {
					result.Data = data
				}
			}

			return result, nil
		case "failed", "stopped":
			message := current.Error
			if message == "" {
				message = "browser agent task " + current.Status
			}

			return nil, fmt.Errorf("browser agent failed: %s", message)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) CloseSession(ctx context.Context, session *models.RemoteSession) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/session/"+session.ID+"/stop", nil)
	if err != nil {
		return err
	}

	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to stop browser session %s: %w", session.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, payload.Message)
		}

		if payload.Error != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, payload.Error)
		}
	}

	return fmt.Errorf("provider returned %d", resp.StatusCode)
}
