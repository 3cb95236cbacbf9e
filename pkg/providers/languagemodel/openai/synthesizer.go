// Package openai implements step synthesis on an OpenAI chat model through
// a structured tool call.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	langopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/languagemodel"
)

const systemPrompt = `You are a helpful assistant that generates clear, actionable browser automation steps.
Take into account any additional context or requirements provided by the user to make the workflow more accurate and useful.

Clear base actions:
- Clicking elements (such as buttons and links)
- Filling out and submitting forms
- Hovering over items
- Pressing keyboard keys like Enter and Tab
- Navigating to specific URLs
- Moving back or forward in browser history
- Scrolling pages
- Extracting structured data
- Grabbing text from page elements
- Executing mouse movements such as drag-and-drop
- Handling file uploads and downloads
- Waiting for page changes

Example steps:
- Go to https://quotes.toscrape.com/
- Use extract_structured_data action with the query "first 3 quotes with their authors"
- Save results to quotes.csv using write_file action
- Do a google search for the first quote and find when it was written

Note: Video analysis is not always accurate, so you may need to adjust the steps based on the context of the video. Predict what the user is trying to do when they are doing a manual repetitive task and generate the steps accordingly.`

const submitStepsTool = "submit_steps"

type Synthesizer struct {
	model  llms.Model
	logger *slog.Logger
}

func NewSynthesizer(settings config.LanguageModelSettings, apiKey string, logger *slog.Logger) (*Synthesizer, error) {
	model, err := langopenai.New(
		langopenai.WithToken(apiKey),
		langopenai.WithModel(settings.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	return &Synthesizer{model: model, logger: logger}, nil
}

// NewSynthesizerWithModel wires an already-constructed model; used by tests.
func NewSynthesizerWithModel(model llms.Model, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{model: model, logger: logger}
}

var _ languagemodel.Provider = (*Synthesizer)(nil)

func (s *Synthesizer) SynthesizeSteps(ctx context.Context, analysis, extraInfo string) ([]string, error) {
	prompt := "Generate steps for a workflow for a browser agent to execute based on this video analysis: " + analysis
	if extraInfo != "" {
		prompt += "\n\nAdditional context and requirements: " + extraInfo
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	resp, err := s.model.GenerateContent(ctx, messages,
		llms.WithTools(synthesisTools()),
		llms.WithToolChoice(llms.ToolChoice{
			Type:     "function",
			Function: &llms.FunctionReference{Name: submitStepsTool},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("language model request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("language model returned no choices")
	}

	choice := resp.Choices[0]

	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil || tc.FunctionCall.Name != submitStepsTool {
			continue
		}

		return decodeSteps([]byte(tc.FunctionCall.Arguments))
	}

	return nil, errors.New("language model did not return structured steps")
}

func synthesisTools() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        submitStepsTool,
				Description: "Submit the ordered list of short imperative browser automation steps.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"steps": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "string",
							},
						},
					},
					"required": []string{"steps"},
				},
			},
		},
	}
}

func decodeSteps(arguments []byte) ([]string, error) {
	var payload struct {
		Steps json.RawMessage `json:"steps"`
	}

	if err := json.Unmarshal(arguments, &payload); err != nil {
		return nil, &languagemodel.ErrSchema{Detail: "tool arguments are not a JSON object: " + err.Error()}
	}

	if len(payload.Steps) == 0 {
		return nil, &languagemodel.ErrSchema{Detail: "tool arguments are missing the steps array"}
	}

	return languagemodel.ValidateSteps(payload.Steps)
}
