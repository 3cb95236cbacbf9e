package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hireshBrem/browsor-ai-agent/pkg/channels/gochannel"
	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/mocks"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
	"github.com/hireshBrem/browsor-ai-agent/pkg/web"
	"github.com/hireshBrem/browsor-ai-agent/pkg/workflow"
)

type testProviders struct {
	video         *mocks.MockVideoProvider
	languageModel *mocks.MockLanguageModelProvider
	automation    *mocks.MockAutomationProvider
}

func fullCredentials() config.Credentials {
	return config.Credentials{
		TwelveLabsAPIKey:   "tl-key",
		OpenAIAPIKey:       "oa-key",
		HyperbrowserAPIKey: "hb-key",
	}
}

func setupTestApp(t *testing.T, credentials config.Credentials) (*fiber.App, *testProviders) {
	t.Helper()

	providers := &testProviders{
		video:         new(mocks.MockVideoProvider),
		languageModel: new(mocks.MockLanguageModelProvider),
		automation:    new(mocks.MockAutomationProvider),
	}

	settings := config.DefaultSettings()
	settings.Video.TimeoutSeconds = 5
	settings.LanguageModel.TimeoutSeconds = 5
	settings.Automation.TimeoutSeconds = 5

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	logger := slog.Default()

	handlers := web.NewAPIHandlers(
		workflow.NewAnalyzer(providers.video, settings.Video, logger),
		workflow.NewSynthesizer(providers.languageModel, settings.LanguageModel, logger),
		workflow.NewExecutor(providers.automation, bus, settings.Automation, nil, logger),
		bus,
		credentials,
		settings,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
	)

	app := fiber.New()

	api := app.Group("/api")
	api.Post("/analyze", handlers.AnalyzeVideo)
	api.Post("/steps", handlers.SynthesizeSteps)
	api.Post("/execute", handlers.ExecuteWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app, providers
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeError(t *testing.T, resp *http.Response) web.ErrorResponse {
	t.Helper()

	var errResp web.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))

	return errResp
}

func TestExecuteWorkflowValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		body          any
		expectedError string
	}{
		{
			name:          "empty object",
			body:          map[string]any{},
			expectedError: "Invalid input. Expected either a 'task' string or 'steps' array.",
		},
		{
			name:          "empty steps and no task",
			body:          map[string]any{"steps": []any{}},
			expectedError: "Invalid input. Expected either a 'task' string or 'steps' array.",
		},
		{
			name:          "blank task",
			body:          map[string]any{"task": "   "},
			expectedError: "Invalid input. Expected either a 'task' string or 'steps' array.",
		},
		{
			name:          "non-string step element",
			body:          map[string]any{"steps": []any{"Go to https://example.com", "Click login", "", 42}},
			expectedError: "All action steps must be strings.",
		},
		{
			name:          "only blank steps",
			body:          map[string]any{"steps": []any{"", "  "}},
			expectedError: "Invalid input. Expected either a 'task' string or 'steps' array.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, providers := setupTestApp(t, fullCredentials())

			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/execute", tt.body))
			require.NoError(t, err)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.expectedError, decodeError(t, resp).Error)

			providers.automation.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
		})
	}
}

func TestExecuteWorkflowMissingCredential(t *testing.T) {
	t.Parallel()

	credentials := fullCredentials()
	credentials.HyperbrowserAPIKey = ""

	app, _ := setupTestApp(t, credentials)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/execute", map[string]any{
		"steps": []any{"Click login"},
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Hyperbrowser API key not configured", decodeError(t, resp).Error)
}

func TestExecuteWorkflowStreamsEventsUntilComplete(t *testing.T) {
	t.Parallel()

	app, providers := setupTestApp(t, fullCredentials())

	session := &models.RemoteSession{ID: "session-1"}
	providers.automation.On("CreateSession", mock.Anything, mock.Anything).Return(session, nil)
	providers.automation.On("Execute", mock.Anything, session, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cb := args.Get(3).(automation.Callbacks)
			cb.OnStep(automation.AgentStep{Index: 1, Data: json.RawMessage(`{"action":"navigate"}`)})
			cb.OnStep(automation.AgentStep{Index: 2, Data: json.RawMessage(`{"action":"click"}`)})
		}).
		Return(&automation.Result{Output: "Task completed successfully"}, nil)
	providers.automation.On("CloseSession", mock.Anything, session).Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/execute", map[string]any{
		"steps": []any{"Go to https://example.com", "Click login"},
	})

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	var envelopes []events.Envelope

	require.NoError(t, streaming.ScanFrames(resp.Body, func(payload []byte) error {
		env, err := events.DecodeEnvelope(payload)
		if err != nil {
			return err
		}

		envelopes = append(envelopes, env)

		return nil
	}))

	require.Len(t, envelopes, 6)
	assert.Equal(t, events.StatusEvent, envelopes[0].Type)
	assert.Equal(t, events.TaskEvent, envelopes[1].Type)
	assert.Equal(t, events.StatusEvent, envelopes[2].Type)
	assert.Equal(t, events.StepEvent, envelopes[3].Type)
	assert.Equal(t, events.StepEvent, envelopes[4].Type)

	terminal := envelopes[5]
	assert.Equal(t, events.CompleteEvent, terminal.Type)
	assert.Equal(t, 2, terminal.Step)
	assert.Equal(t, 2, terminal.TotalSteps)
	assert.Equal(t, "Task completed successfully", terminal.Output)
}

func TestSynthesizeSteps(t *testing.T) {
	t.Parallel()

	app, providers := setupTestApp(t, fullCredentials())

	providers.languageModel.On("SynthesizeSteps", mock.Anything, "the user logs in", "").
		Return([]string{"Go to https://example.com", "Click login"}, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/steps", map[string]any{
		"analysis": "the user logs in",
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var steps []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&steps))
	assert.Equal(t, []string{"Go to https://example.com", "Click login"}, steps)
}

func TestSynthesizeStepsBareStringBody(t *testing.T) {
	t.Parallel()

	app, providers := setupTestApp(t, fullCredentials())

	providers.languageModel.On("SynthesizeSteps", mock.Anything, "bare analysis text", "").
		Return([]string{"Click login"}, nil)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/steps", "bare analysis text"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var steps []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&steps))
	assert.Equal(t, []string{"Click login"}, steps)
}

func TestSynthesizeStepsMissingAnalysis(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, fullCredentials())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/steps", map[string]any{
		"extraInfo": "no analysis here",
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSynthesizeStepsMissingCredential(t *testing.T) {
	t.Parallel()

	credentials := fullCredentials()
	credentials.OpenAIAPIKey = ""

	app, providers := setupTestApp(t, credentials)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/steps", map[string]any{
		"analysis": "the user logs in",
	}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "OpenAI API key not configured", decodeError(t, resp).Error)

	providers.languageModel.AssertNotCalled(t, "SynthesizeSteps", mock.Anything, mock.Anything, mock.Anything)
}

func videoUploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer

	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("video", filename)
	require.NoError(t, err)

	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())

	return req
}

func TestAnalyzeVideoStreamsChunkedText(t *testing.T) {
	t.Parallel()

	app, providers := setupTestApp(t, fullCredentials())

	ready := models.RemoteTask{ID: "task-1", VideoID: "video-1", Status: models.TaskStatusReady}

	providers.video.On("EnsureIndex", mock.Anything, mock.Anything).
		Return(models.RemoteIndex{ID: "idx-1"}, nil)
	providers.video.On("EnsureTask", mock.Anything, mock.Anything, mock.Anything).
		Return(ready, false, nil)
	providers.video.On("WaitForTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ready, nil)
	providers.video.On("Analyze", mock.Anything, "video-1", mock.Anything).
		Return(mocks.ChunkStream(
			streaming.TextChunk{Text: "The user opens "},
			streaming.TextChunk{Text: "the login page."},
		), nil)

	resp, err := app.Test(videoUploadRequest(t, "recording.mp4", []byte("frames")), fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "The user opens the login page.", string(body))
}

func TestAnalyzeVideoMissingFile(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, fullCredentials())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeVideoMissingCredential(t *testing.T) {
	t.Parallel()

	credentials := fullCredentials()
	credentials.TwelveLabsAPIKey = ""

	app, _ := setupTestApp(t, credentials)

	resp, err := app.Test(videoUploadRequest(t, "recording.mp4", []byte("frames")))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "TwelveLabs API key not configured", decodeError(t, resp).Error)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, fullCredentials())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHealthCheckUnhealthyWithoutCredentials(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t, config.Credentials{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
