// Package config provides credential resolution and static pipeline settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Credentials are the per-provider API keys, resolved from the environment
// once at startup and passed through opaquely. A missing key short-circuits
// the corresponding endpoint before any provider call is attempted.
type Credentials struct {
	TwelveLabsAPIKey   string
	OpenAIAPIKey       string
	HyperbrowserAPIKey string
}

func ResolveCredentials() Credentials {
	return Credentials{
		TwelveLabsAPIKey:   os.Getenv("TWELVELABS_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		HyperbrowserAPIKey: os.Getenv("HYPERBROWSER_API_KEY"),
	}
}

var (
	ErrMissingVideoKey         = errors.New("TwelveLabs API key not configured")
	ErrMissingLanguageModelKey = errors.New("OpenAI API key not configured")
	ErrMissingAutomationKey    = errors.New("Hyperbrowser API key not configured")
)

func (c Credentials) RequireVideo() error {
	if c.TwelveLabsAPIKey == "" {
		return ErrMissingVideoKey
	}

	return nil
}

func (c Credentials) RequireLanguageModel() error {
	if c.OpenAIAPIKey == "" {
		return ErrMissingLanguageModelKey
	}

	return nil
}

func (c Credentials) RequireAutomation() error {
	if c.HyperbrowserAPIKey == "" {
		return ErrMissingAutomationKey
	}

	return nil
}

// IndexModel is one model attached to a newly created video index.
type IndexModel struct {
	Name    string   `yaml:"name"`
	Options []string `yaml:"options"`
}

// VideoSettings configure the video analysis stage.
type VideoSettings struct {
	BaseURL             string       `yaml:"base_url"`
	IndexName           string       `yaml:"index_name"`
	Models              []IndexModel `yaml:"models"`
	AnalysisPrompt      string       `yaml:"analysis_prompt"`
	PollIntervalSeconds int          `yaml:"poll_interval_seconds"`
	TimeoutSeconds      int          `yaml:"timeout_seconds"`
}

func (s VideoSettings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

func (s VideoSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LanguageModelSettings configure the step synthesis stage.
type LanguageModelSettings struct {
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (s LanguageModelSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// AutomationSettings configure the workflow execution stage. Proxy and profile
// are static, pre-agreed settings rather than per-request parameters.
type AutomationSettings struct {
	Provider            string `yaml:"provider"` // "hyperbrowser" or "local"
	BaseURL             string `yaml:"base_url"`
	UseProxy            bool   `yaml:"use_proxy"`
	ProxyCountry        string `yaml:"proxy_country"`
	ProfileID           string `yaml:"profile_id"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	TimeoutSeconds      int    `yaml:"timeout_seconds"`
}

func (s AutomationSettings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

func (s AutomationSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Settings are the static pipeline settings, optionally loaded from a YAML
// file. Credentials never live here.
type Settings struct {
	Video         VideoSettings         `yaml:"video"`
	LanguageModel LanguageModelSettings `yaml:"language_model"`
	Automation    AutomationSettings    `yaml:"automation"`
}

const (
	ProviderHyperbrowser = "hyperbrowser"
	ProviderLocal        = "local"
)

// DefaultSettings mirror the behavior of the hosted providers' defaults.
func DefaultSettings() Settings {
	return Settings{
		Video: VideoSettings{
			BaseURL:   "https://api.twelvelabs.io/v1.3",
			IndexName: "browsor-recordings",
			Models: []IndexModel{
				{Name: "marengo2.7", Options: []string{"visual", "audio"}},
				{Name: "pegasus1.2", Options: []string{"visual", "audio"}},
			},
			AnalysisPrompt: "The video is a screen recording of a person doing a manual browser task. " +
				"Explain what is going on in the screen recording video.",
			PollIntervalSeconds: 5,
			TimeoutSeconds:      90,
		},
		LanguageModel: LanguageModelSettings{
			Model:          "gpt-4o",
			TimeoutSeconds: 30,
		},
		Automation: AutomationSettings{
			Provider:            ProviderHyperbrowser,
			BaseURL:             "https://app.hyperbrowser.ai",
			UseProxy:            true,
			ProxyCountry:        "us",
			PollIntervalSeconds: 2,
			TimeoutSeconds:      60,
		},
	}
}

// LoadSettings reads settings from a YAML file. Fields absent from the file
// keep their defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if err := ValidateSettings(settings); err != nil {
		return settings, err
	}

	return settings, nil
}

// LoadSettingsOrDefault attempts to load settings from a file, falling back to
// the defaults when no path is given or the file does not exist.
func LoadSettingsOrDefault(path string) Settings {
	if path == "" {
		return DefaultSettings()
	}

	settings, err := LoadSettings(path)
	if err != nil {
		return DefaultSettings()
	}

	return settings
}

// ValidateSettings rejects setting combinations no stage can run with.
func ValidateSettings(s Settings) error {
	if s.Video.IndexName == "" {
		return errors.New("video: index_name is required")
	}

	if s.Video.PollIntervalSeconds <= 0 {
		return errors.New("video: poll_interval_seconds must be positive")
	}

	if s.Video.TimeoutSeconds <= 0 {
		return errors.New("video: timeout_seconds must be positive")
	}

	if s.LanguageModel.Model == "" {
		return errors.New("language_model: model is required")
	}

	switch s.Automation.Provider {
	case ProviderHyperbrowser, ProviderLocal:
	default:
		return fmt.Errorf("automation: unknown provider %q", s.Automation.Provider)
	}

	if s.Automation.TimeoutSeconds <= 0 {
		return errors.New("automation: timeout_seconds must be positive")
	}

	return nil
}
