package workflow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/models"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/languagemodel"
)

// Synthesizer turns a completed analysis transcript into an ordered plain-text
// step list.
type Synthesizer struct {
	provider languagemodel.Provider
	settings config.LanguageModelSettings
	logger   *slog.Logger
}

func NewSynthesizer(provider languagemodel.Provider, settings config.LanguageModelSettings, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		settings: settings,
		logger:   logger,
	}
}

// Run synthesizes steps from the analysis text. extraInfo is optional operator
// guidance folded into the request verbatim; the analysis itself is required.
func (s *Synthesizer) Run(ctx context.Context, analysis, extraInfo string) (models.StepList, error) {
	analysis = strings.TrimSpace(analysis)
	if analysis == "" {
		return nil, NewStageError(StageSynthesis, "analysis text is required", nil)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.settings.Timeout())
	defer cancel()

	raw, err := s.provider.SynthesizeSteps(runCtx, analysis, extraInfo)
	if err != nil {
		return nil, NewStageError(StageSynthesis, "step synthesis failed", err)
	}

	steps := make(models.StepList, 0, len(raw))
	for _, step := range raw {
		if strings.TrimSpace(step) == "" {
			continue
		}

		steps = append(steps, step)
	}

	if err := steps.Validate(); err != nil {
		return nil, NewStageError(StageSynthesis, "model returned no usable steps", err)
	}

	s.logger.Debug("Synthesized steps", "count", len(steps))

	return steps, nil
}
