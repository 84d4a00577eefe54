package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/pagechat/pkg/types"
)

const (
	// SectionIDSettings is the identifier for the user settings section
	SectionIDSettings = "settings"
)

// SettingsSection holds the popup preferences: API key, model and display flags.
type SettingsSection struct {
	APIKey          string
	Model           types.Model
	IncludeAll      bool
	MarkdownEnabled bool
	mu              sync.RWMutex
}

// NewSettingsSection creates a settings section with default values.
func NewSettingsSection() *SettingsSection {
	s := &SettingsSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *SettingsSection) ID() string {
	return SectionIDSettings
}

// Title returns the section title.
func (s *SettingsSection) Title() string {
	return "Settings"
}

// Description returns the section description.
func (s *SettingsSection) Description() string {
	return "Gemini API key, model selection, page capture scope and Markdown rendering."
}

// Data returns the current configuration data.
func (s *SettingsSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"api_key":          s.APIKey,
		"model":            string(s.Model),
		"include_all":      s.IncludeAll,
		"markdown_enabled": s.MarkdownEnabled,
	}
}

// SetData updates the configuration from the provided data.
func (s *SettingsSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "api_key":
			apiKey, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for api_key: expected string, got %T", value)
			}
			s.APIKey = apiKey
		case "model":
			model, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for model: expected string, got %T", value)
			}
			s.Model = types.Model(model)
		case "include_all":
			includeAll, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for include_all: expected bool, got %T", value)
			}
			s.IncludeAll = includeAll
		case "markdown_enabled":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for markdown_enabled: expected bool, got %T", value)
			}
			s.MarkdownEnabled = enabled
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *SettingsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.Model.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownModel, s.Model)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *SettingsSection) Reset() {
	defaults := types.DefaultSettings()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = defaults.APIKey
	s.Model = defaults.Model
	s.IncludeAll = defaults.IncludeAll
	s.MarkdownEnabled = defaults.MarkdownEnabled
}

// Get returns a snapshot of the settings.
func (s *SettingsSection) Get() types.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Settings{
		APIKey:          s.APIKey,
		Model:           s.Model,
		IncludeAll:      s.IncludeAll,
		MarkdownEnabled: s.MarkdownEnabled,
	}
}

// Set replaces all settings at once.
func (s *SettingsSection) Set(settings types.Settings) error {
	if !settings.Model.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownModel, settings.Model)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.APIKey = settings.APIKey
	s.Model = settings.Model
	s.IncludeAll = settings.IncludeAll
	s.MarkdownEnabled = settings.MarkdownEnabled
	return nil
}

// GetAPIKey returns the configured API key.
func (s *SettingsSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}
