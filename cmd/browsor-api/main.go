package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/hireshBrem/browsor-ai-agent/pkg/cmd"
	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/log"
	"github.com/hireshBrem/browsor-ai-agent/pkg/otelhelper"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "browsor-api",
		Usage:                 "Turn screen recordings into executable browser automations",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "settings",
				Usage:   "Path to a YAML settings file",
				Sources: cli.EnvVars("BROWSOR_SETTINGS"),
			},
			&cli.StringFlag{
				Name:    "automation-provider",
				Usage:   "Browser automation provider (hyperbrowser, local)",
				Sources: cli.EnvVars("AUTOMATION_PROVIDER"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("BROWSOR_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Browsor API")

			settings := config.LoadSettingsOrDefault(command.String("settings"))
			if provider := command.String("automation-provider"); provider != "" {
				settings.Automation.Provider = provider
			}

			if err := config.ValidateSettings(settings); err != nil {
				return err
			}

			credentials := config.ResolveCredentials()

			eventBus := cmd.NewEventBus(logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(logger, settings, credentials, eventBus)

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "browsor-api")
				if err != nil {
					return err
				}

				api.tracer = tracer
			}

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
