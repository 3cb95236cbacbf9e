// Package twelvelabs implements the video provider boundary against the
// Twelve Labs REST API.
package twelvelabs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
)

type Client struct {
	baseURL     string
	apiKey      string
	indexModels []config.IndexModel
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(settings config.VideoSettings, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:     settings.BaseURL,
		apiKey:      apiKey,
		indexModels: settings.Models,
		httpClient:  &http.Client{},
		logger:      logger,
	}
}

type indexResource struct {
	ID   string `json:"_id"`
	Name string `json:"index_name"`
}

type taskResource struct {
	ID      string `json:"_id"`
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

func (c *Client) EnsureIndex(ctx context.Context, name string) (models.RemoteIndex, error) {
	query := url.Values{"index_name": {name}}

	var listed listEnvelope[indexResource]
	if err := c.getJSON(ctx, "/indexes?"+query.Encode(), &listed); err != nil {
		return models.RemoteIndex{}, fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, index := range listed.Data {
		if index.Name == name {
			return models.RemoteIndex{ID: index.ID, Name: name}, nil
		}
	}

	body := map[string]any{
		"index_name": name,
		"models":     c.indexModelPayload(),
	}

	var created indexResource
	if err := c.postJSON(ctx, "/indexes", body, &created); err != nil {
		return models.RemoteIndex{}, fmt.Errorf("failed to create index %q: %w", name, err)
	}

	c.logger.Info("Created video index", "index_id", created.ID, "index_name", name)

	return models.RemoteIndex{ID: created.ID, Name: name}, nil
}

func (c *Client) indexModelPayload() []map[string]any {
	payload := make([]map[string]any, 0, len(c.indexModels))
	for _, m := range c.indexModels {
		payload = append(payload, map[string]any{
			"model_name":    m.Name,
			"model_options": m.Options,
		})
	}

	return payload
}

func (c *Client) EnsureTask(ctx context.Context, index models.RemoteIndex, asset *models.VideoAsset) (models.RemoteTask, bool, error) {
	query := url.Values{
		"index_id": {index.ID},
		"filename": {asset.Name},
	}

	var listed listEnvelope[taskResource]
	if err := c.getJSON(ctx, "/tasks?"+query.Encode(), &listed); err != nil {
		return models.RemoteTask{}, false, fmt.Errorf("failed to list ingestion tasks: %w", err)
	}

	if len(listed.Data) > 0 {
		existing := listed.Data[0]

		return models.RemoteTask{
			ID:      existing.ID,
			VideoID: existing.VideoID,
			Status:  models.TaskStatus(existing.Status),
		}, true, nil
	}

	created, err := c.uploadTask(ctx, index, asset)
	if err != nil {
		return models.RemoteTask{}, false, err
	}

	return created, false, nil
}

func (c *Client) uploadTask(ctx context.Context, index models.RemoteIndex, asset *models.VideoAsset) (models.RemoteTask, error) {
	var buf bytes.Buffer

	form := multipart.NewWriter(&buf)

	if err := form.WriteField("index_id", index.ID); err != nil {
		return models.RemoteTask{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	part, err := form.CreateFormFile("video_file", asset.Name)
	if err != nil {
		return models.RemoteTask{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	if _, err := part.Write(asset.Content); err != nil {
		return models.RemoteTask{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	if err := form.Close(); err != nil {
		return models.RemoteTask{}, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", &buf)
	if err != nil {
		return models.RemoteTask{}, err
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.RemoteTask{}, fmt.Errorf("failed to upload video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RemoteTask{}, decodeError(resp)
	}

	var created taskResource
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return models.RemoteTask{}, fmt.Errorf("failed to decode upload response: %w", err)
	}

	c.logger.Info("Created ingestion task", "task_id", created.ID, "filename", asset.Name)

	return models.RemoteTask{
		ID:      created.ID,
		VideoID: created.VideoID,
		Status:  models.TaskStatus(created.Status),
	}, nil
}

func (c *Client) WaitForTask(ctx context.Context, task models.RemoteTask, interval time.Duration, onStatus func(models.TaskStatus)) (models.RemoteTask, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var current taskResource
		if err := c.getJSON(ctx, "/tasks/"+task.ID, &current); err != nil {
			return task, fmt.Errorf("failed to poll ingestion task %s: %w", task.ID, err)
		}

		status := models.TaskStatus(current.Status)
		if onStatus != nil {
			onStatus(status)
		}

		task.Status = status
		if current.VideoID != "" {
			task.VideoID = current.VideoID
		}

		if status.Terminal() {
			return task, nil
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}

// analysisEvent is one frame of the provider's streaming analysis response.
type analysisEvent struct {
	EventType string `json:"event_type"`
	Text      string `json:"text"`
}

func (c *Client) Analyze(ctx context.Context, videoID string, prompt string) (<-chan streaming.TextChunk, error) {
	body := map[string]any{
		"video_id": videoID,
		"prompt":   prompt,
		"stream":   true,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open analysis stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		return nil, decodeError(resp)
	}

	raw := make(chan streaming.TextChunk)

	go func() {
		defer close(raw)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var event analysisEvent
			if err := json.Unmarshal(line, &event); err != nil {
				c.logger.Warn("Skipping malformed analysis frame", "error", err)

				continue
			}

			if event.EventType != "text_generation" || event.Text == "" {
				continue
			}

			select {
			case raw <- streaming.TextChunk{Text: event.Text}:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case raw <- streaming.TextChunk{Err: fmt.Errorf("analysis stream failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	return raw, nil
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
