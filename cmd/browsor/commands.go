package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/hireshBrem/browsor-ai-agent/pkg/events"
	"github.com/hireshBrem/browsor-ai-agent/pkg/log"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/pipeline"
)

func newClient(command *cli.Command) *Client {
	log.SetupPretty(command.String("log-level"))

	return NewClient(command.String("server"), log.WithModule("cli"))
}

// AnalyzeCommand uploads one recording and prints the analysis text as it
// streams in.
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a screen recording",
		ArgsUsage: "<video-file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one video file argument")
			}

			client := newClient(command)

			err := client.Analyze(ctx, command.Args().First(), func(text string) {
				fmt.Print(text)
			})
			fmt.Println()

			return err
		},
	}
}

// StepsCommand synthesizes steps from an analysis transcript read from a
// file or stdin.
func StepsCommand() *cli.Command {
	return &cli.Command{
		Name:  "steps",
		Usage: "Synthesize automation steps from an analysis transcript",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "analysis-file",
				Aliases: []string{"f"},
				Usage:   "File holding the analysis transcript (defaults to stdin)",
			},
			&cli.StringFlag{
				Name:    "extra",
				Aliases: []string{"e"},
				Usage:   "Extra context for the step synthesizer",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			client := newClient(command)

			analysis, err := readAnalysis(command.String("analysis-file"))
			if err != nil {
				return err
			}

			steps, err := client.SynthesizeSteps(ctx, analysis, command.String("extra"))
			if err != nil {
				return err
			}

			printSteps(steps)

			return nil
		},
	}
}

// ExecuteCommand runs a step list against the browser agent, printing relayed
// events as they arrive.
func ExecuteCommand() *cli.Command {
	return &cli.Command{
		Name:  "execute",
		Usage: "Execute automation steps with the browser agent",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "step",
				Aliases: []string{"t"},
				Usage:   "One automation step (repeatable, in execution order)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			client := newClient(command)

			steps := command.StringSlice("step")
			if len(steps) == 0 {
				return fmt.Errorf("at least one --step is required")
			}

			return client.Execute(ctx, steps, printEvent)
		},
	}
}

// RunCommand drives the whole pipeline: analyze, synthesize, apply edits,
// confirm, execute.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the full recording-to-automation pipeline",
		ArgsUsage: "<video-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "extra",
				Aliases: []string{"e"},
				Usage:   "Extra context for the step synthesizer",
			},
			&cli.StringSliceFlag{
				Name:  "edit",
				Usage: "Replace a step before execution, as INDEX=TEXT (1-based)",
			},
			&cli.IntSliceFlag{
				Name:  "delete",
				Usage: "Delete a step before execution, by 1-based index",
			},
			&cli.StringSliceFlag{
				Name:  "append",
				Usage: "Append a step before execution",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Execute without the confirmation prompt",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one video file argument")
			}

			client := newClient(command)
			controller := pipeline.NewController()

			if err := controller.SubmitVideo(); err != nil {
				return err
			}

			err := client.Analyze(ctx, command.Args().First(), func(text string) {
				fmt.Print(text)

				if err := controller.OnAnalysisChunk(text); err != nil {
					client.logger.Warn("Dropped analysis chunk", "error", err)
				}
			})

			fmt.Println()

			if err != nil {
				controller.OnAnalysisError(err)

				return err
			}

			if err := controller.OnAnalysisEnd(); err != nil {
				return err
			}

			if !controller.CanSynthesize() {
				return fmt.Errorf("analysis produced no text")
			}

			raw, err := client.SynthesizeSteps(ctx, controller.Analysis().Text(), command.String("extra"))
			if err != nil {
				return err
			}

			if err := controller.SetSteps(models.StepList(raw)); err != nil {
				return err
			}

			if err := applyEdits(controller.Editor(), command); err != nil {
				return err
			}

			printSteps(controller.Editor().Steps())

			if !command.Bool("yes") && !confirmPrompt() {
				fmt.Println("Aborted.")

				return nil
			}

			steps, err := controller.Confirm()
			if err != nil {
				return err
			}

			return client.Execute(ctx, steps, func(env events.Envelope) {
				printEvent(env)

				if err := controller.OnExecutionEvent(env); err != nil {
					client.logger.Warn("Dropped execution event", "error", err)
				}
			})
		},
	}
}

func readAnalysis(path string) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return "", fmt.Errorf("failed to read analysis: %w", err)
	}

	return string(data), nil
}

// applyEdits replays --edit, --delete and --append flags through the step
// editor. Flag indices are 1-based; deletes are applied last so edit indices
// stay stable.
func applyEdits(editor *pipeline.StepEditor, command *cli.Command) error {
	for _, edit := range command.StringSlice("edit") {
		index, text, ok := strings.Cut(edit, "=")
		if !ok {
			return fmt.Errorf("invalid --edit %q, expected INDEX=TEXT", edit)
		}

		i, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil {
			return fmt.Errorf("invalid --edit index %q", index)
		}

		if err := editor.StartEdit(i - 1); err != nil {
			return err
		}

		if err := editor.SetDraft(text); err != nil {
			return err
		}

		if err := editor.SaveEdit(); err != nil {
			return err
		}
	}

	for _, step := range command.StringSlice("append") {
		if err := editor.Append(step); err != nil {
			return err
		}
	}

	// Highest index first so earlier deletes do not shift later ones.
	deletes := command.IntSlice("delete")
	sort.Sort(sort.Reverse(sort.IntSlice(deletes)))

	for _, index := range deletes {
		if err := editor.Delete(index - 1); err != nil {
			return err
		}
	}

	return nil
}

func confirmPrompt() bool {
	fmt.Print("Execute these steps? [y/N] ")

	reader := bufio.NewReader(os.Stdin)

	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes"
}

func printSteps(steps []string) {
	fmt.Println("Steps:")

	for i, step := range steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
}

func printEvent(env events.Envelope) {
	switch env.Type {
	case events.StatusEvent:
		fmt.Printf("[status] %s\n", env.Message)
	case events.TaskEvent:
		fmt.Printf("[task] %s\n", env.TaskDescription)
	case events.StepEvent:
		fmt.Printf("[step %d/%d] %s\n", env.Step, env.TotalSteps, env.Message)
	case events.AgentOutputEvent:
		fmt.Printf("[agent] %s\n", string(env.Data))
	case events.CompleteEvent:
		fmt.Printf("[complete] %s\n", env.Output)
	case events.ErrorEvent:
		fmt.Printf("[error] %s\n", env.Error)
	}
}
