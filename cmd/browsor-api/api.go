// Package main provides the Browsor API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/hireshBrem/browsor-ai-agent/pkg/cmd"
	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/eventbus"
	"github.com/hireshBrem/browsor-ai-agent/pkg/web"
	"github.com/hireshBrem/browsor-ai-agent/pkg/workflow"
)

// Video uploads arrive in one multipart body.
const maxBodyBytes = 256 * 1024 * 1024

type API struct {
	logger      *slog.Logger
	settings    config.Settings
	credentials config.Credentials
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	tracer      trace.Tracer
}

func NewAPI(
	logger *slog.Logger,
	settings config.Settings,
	credentials config.Credentials,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		settings:    settings,
		credentials: credentials,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	videoProvider := cmd.NewVideoProvider(a.settings.Video, a.credentials, a.logger)
	automationProvider := cmd.NewAutomationProvider(a.settings.Automation, a.credentials, a.logger)

	languageModelProvider, err := cmd.NewLanguageModelProvider(a.settings.LanguageModel, a.credentials, a.logger)
	if err != nil {
		// Requests still short-circuit with a 500 before reaching the
		// provider when its credential is missing.
		a.logger.Warn("Language model provider unavailable", "error", err)
	}

	analyzer := workflow.NewAnalyzer(videoProvider, a.settings.Video, a.logger)
	synthesizer := workflow.NewSynthesizer(languageModelProvider, a.settings.LanguageModel, a.logger)
	executor := workflow.NewExecutor(automationProvider, a.eventBus, a.settings.Automation, a.tracer, a.logger)

	handlers := web.NewAPIHandlers(
		analyzer,
		synthesizer,
		executor,
		a.eventBus,
		a.credentials,
		a.settings,
		a.validate,
		a.logger,
	)

	app := fiber.New(fiber.Config{
		BodyLimit:    maxBodyBytes,
		ErrorHandler: web.ErrorHandler,
	})
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Browsor API")
	})

	api := app.Group("/api")
	api.Post("/analyze", handlers.AnalyzeVideo)
	api.Post("/steps", handlers.SynthesizeSteps)
	api.Post("/execute", handlers.ExecuteWorkflow)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
