package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/hireshBrem/browsor-ai-agent/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "browsor",
		Usage:                 "Drive the recording-to-automation pipeline from the terminal",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Base URL of the Browsor API",
				Value:   "http://localhost:9091",
				Sources: cli.EnvVars("BROWSOR_SERVER"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			AnalyzeCommand(),
			StepsCommand(),
			ExecuteCommand(),
			RunCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
