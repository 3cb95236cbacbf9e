package cmd

import (
	"log/slog"

	"github.com/hireshBrem/browsor-ai-agent/pkg/config"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation/hyperbrowser"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/automation/local"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/languagemodel"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/languagemodel/openai"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/video"
	"github.com/hireshBrem/browsor-ai-agent/pkg/providers/video/twelvelabs"
)

// NewVideoProvider creates the video-understanding provider client.
func NewVideoProvider(settings config.VideoSettings, credentials config.Credentials, logger *slog.Logger) video.Provider {
	return twelvelabs.NewClient(settings, credentials.TwelveLabsAPIKey, logger)
}

// NewLanguageModelProvider creates the step synthesis provider client.
func NewLanguageModelProvider(settings config.LanguageModelSettings, credentials config.Credentials, logger *slog.Logger) (languagemodel.Provider, error) {
	return openai.NewSynthesizer(settings, credentials.OpenAIAPIKey, logger)
}

// NewAutomationProvider creates the browser-automation provider selected by
// the settings: the hosted agent or a local headless browser.
func NewAutomationProvider(settings config.AutomationSettings, credentials config.Credentials, logger *slog.Logger) automation.Provider {
	if settings.Provider == config.ProviderLocal {
		return local.NewDriver(true, logger)
	}

	return hyperbrowser.NewClient(settings, credentials.HyperbrowserAPIKey, logger)
}
