package web

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/streaming"
	"github.com/hireshBrem/browsor-ai-agent/pkg/workflow"
)

// videoFormField is the multipart field carrying the recording.
const videoFormField = "video"

type APIHandlers struct {
	analyzer    *workflow.Analyzer
	synthesizer *workflow.Synthesizer
	executor    *workflow.Executor
	bus         eventbus.EventBus
	credentials config.Credentials
	settings    config.Settings
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	analyzer *workflow.Analyzer,
	synthesizer *workflow.Synthesizer,
	executor *workflow.Executor,
	bus eventbus.EventBus,
	credentials config.Credentials,
	settings config.Settings,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		analyzer:    analyzer,
		synthesizer: synthesizer,
		executor:    executor,
		bus:         bus,
		credentials: credentials,
		settings:    settings,
		validator:   validator,
		logger:      logger,
	}
}

// AnalyzeVideo accepts one multipart video upload and responds with the
// analysis text as a continuous chunked plain-text body. Errors before the
// first chunk are JSON; a mid-stream failure is appended in-band since the
// status line is already committed.
func (h *APIHandlers) AnalyzeVideo(c fiber.Ctx) error {
	if err := h.credentials.RequireVideo(); err != nil {
		return credentialError(c, err)
	}

	fileHeader, err := c.FormFile(videoFormField)
	if err != nil {
		return badRequest(c, "A 'video' file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return internalError(c, "Failed to read uploaded video", err.Error())
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return internalError(c, "Failed to read uploaded video", err.Error())
	}

	asset := models.NewVideoAsset(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content)

	chunks, err := h.analyzer.Run(c.Context(), asset)
	if err != nil {
		if stageErr, ok := workflow.AsStageError(err); ok {
			return internalError(c, stageErr.Message, stageErr.Detail())
		}

		return internalError(c, "Video analysis failed", err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		for chunk := range chunks {
			if chunk.Err != nil {
				_, _ = w.WriteString("\n\nError: " + chunk.Err.Error())
				_ = w.Flush()

				return
			}

			if _, err := w.WriteString(chunk.Text); err != nil {
				return
			}

			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}

// SynthesizeSteps turns an analysis transcript into an ordered JSON array of
// instruction strings. The body is either {analysis, extraInfo?} or, for
// backward compatibility, a bare JSON string treated as the analysis.
func (h *APIHandlers) SynthesizeSteps(c fiber.Ctx) error {
	if err := h.credentials.RequireLanguageModel(); err != nil {
		return credentialError(c, err)
	}

	var req SynthesizeStepsRequest

	var bare string
	if err := json.Unmarshal(c.Body(), &bare); err == nil {
		req.Analysis = bare
	} else if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "An 'analysis' string is required")
	}

	steps, err := h.synthesizer.Run(c.Context(), req.Analysis, req.ExtraInfo)
	if err != nil {
		if stageErr, ok := workflow.AsStageError(err); ok {
			return internalError(c, stageErr.Message, stageErr.Detail())
		}

		return internalError(c, "Step synthesis failed", err.Error())
	}

	return c.JSON(steps)
}

// ExecuteWorkflow starts one browser-agent run and relays its events as an
// SSE stream. Input is validated before any streaming begins; once the
// stream opens, failures arrive as terminal error events.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, msgInvalidExecuteInput)
	}

	task := strings.TrimSpace(req.Task)
	if len(req.Steps) == 0 && task == "" {
		return badRequest(c, msgInvalidExecuteInput)
	}

	var input workflow.RunInput

	if len(req.Steps) > 0 {
		if err := models.CheckRawSteps(req.Steps); err != nil {
			return badRequest(c, msgNonStringSteps)
		}

		steps := models.FlattenSteps(req.Steps)
		if err := steps.Validate(); err != nil {
			return badRequest(c, msgInvalidExecuteInput)
		}

		input = workflow.RunInput{Steps: steps}
	} else {
		input = workflow.RunInput{Task: task}
	}

	if h.settings.Automation.Provider == config.ProviderHyperbrowser {
		if err := h.credentials.RequireAutomation(); err != nil {
			return credentialError(c, err)
		}
	}

	runID := h.bus.GenerateID()

	// Detached from the request context so the run outlives the handler
	// return; the stream writer owns the cancel.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(c.Context()))

	messages, err := h.bus.Subscribe(runCtx, events.RunTopic(runID))
	if err != nil {
		cancel()

		return internalError(c, "Failed to open event stream", err.Error())
	}

	go func() {
		if err := h.executor.Run(runCtx, runID, input); err != nil {
			h.logger.Error("Workflow run failed", "run_id", runID, "error", err)
		}
	}()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// Bus messages pass through the same pump as analysis chunks; malformed
	// payloads are dropped in the transform, terminal detection is decoded
	// once here instead of in the write loop.
	frames := streaming.Pump(runCtx, messages, nil, func(msg *message.Message) (runFrame, bool) {
		defer msg.Ack()

		env, err := events.DecodeEnvelope(msg.Payload)
		if err != nil {
			h.logger.Warn("Skipping malformed run event", "run_id", runID, "error", err)

			return runFrame{}, false
		}

		return runFrame{payload: msg.Payload, terminal: env.Terminal()}, true
	})

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for frame := range frames {
			if err := streaming.WriteFrame(w, frame.payload); err != nil {
				return
			}

			if err := w.Flush(); err != nil {
				return
			}

			if frame.terminal {
				return
			}
		}
	})
}

// runFrame is one SSE-ready run event: the raw envelope bytes plus whether it
// ends the stream.
type runFrame struct {
	payload  []byte
	terminal bool
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	checkers := fiber.Map{
		"video_provider":          h.credentials.RequireVideo() == nil,
		"language_model_provider": h.credentials.RequireLanguageModel() == nil,
		"automation_provider": h.settings.Automation.Provider == config.ProviderLocal ||
			h.credentials.RequireAutomation() == nil,
	}

	status := "healthy"
	message := "Browsor API is healthy"
	httpStatus := http.StatusOK

	for _, ok := range checkers {
		if ok != true {
			status = "unhealthy"
			message = "Browsor API is unhealthy"
			httpStatus = http.StatusInternalServerError

			break
		}
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"checkers":  checkers,
		"timestamp": time.Now().UTC(),
	})
}
