package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
)

// Client talks to the Browsor API over HTTP, streaming both the chunked
// analysis text and the execution SSE stream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type apiError struct {
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *apiError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}

	return e.Message
}

func decodeAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	return &apiErr
}

// Analyze uploads the video at path and forwards every analysis text chunk
// to onChunk in arrival order.
func (c *Client) Analyze(ctx context.Context, path string, onChunk func(text string)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("video", filepath.Base(path))
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", &body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	buf := make([]byte, 4096)

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			onChunk(string(buf[:n]))
		}

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("analysis stream failed: %w", err)
		}
	}
}

// SynthesizeSteps turns the analysis transcript into an ordered step list.
func (c *Client) SynthesizeSteps(ctx context.Context, analysis, extraInfo string) ([]string, error) {
	payload, err := json.Marshal(map[string]string{
		"analysis":  analysis,
		"extraInfo": extraInfo,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/steps", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var steps []string
	if err := json.NewDecoder(resp.Body).Decode(&steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps: %w", err)
	}

	return steps, nil
}

// Execute starts a run with the given steps and forwards every relayed event
// to onEvent. It returns after the terminal event, with an error when the
// run ended in an error event.
func (c *Client) Execute(ctx context.Context, steps []string, onEvent func(events.Envelope)) error {
	payload, err := json.Marshal(map[string]any{"steps": steps})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/execute", bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	var terminal *events.Envelope

	err = streaming.ScanFrames(resp.Body, func(payload []byte) error {
		env, err := events.DecodeEnvelope(payload)
		if err != nil {
			c.logger.Warn("Skipping malformed event frame", "error", err)

			return nil
		}

		onEvent(env)

		if env.Terminal() {
			terminal = &env

			return io.EOF
		}

		return nil
	})
	if err != nil && err != io.EOF {
		return fmt.Errorf("event stream failed: %w", err)
	}

	if terminal == nil {
		return fmt.Errorf("event stream ended without a terminal event")
	}

	if terminal.Type == events.ErrorEvent {
		return fmt.Errorf("execution failed: %s", terminal.Error)
	}

	return nil
}
