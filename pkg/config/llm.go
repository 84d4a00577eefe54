package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/pagechat/pkg/llm"
)

const (
	// SectionIDLLM is the identifier for the LLM settings section
	SectionIDLLM = "llm"
)

// LLMSection selects which client library talks to Gemini.
type LLMSection struct {
	Backend llm.Backend
	BaseURL string // optional; only used by the openai backend
	mu      sync.RWMutex
}

// NewLLMSection creates a new LLM section with default settings.
func NewLLMSection() *LLMSection {
	return &LLMSection{
		Backend: llm.BackendGenAI,
	}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return SectionIDLLM
}

// Title returns the section title.
func (s *LLMSection) Title() string {
	return "LLM Settings"
}

// Description returns the section description.
func (s *LLMSection) Description() string {
	return "Choose the Gemini client: genai (native SDK) or openai (OpenAI-compatible endpoint). base_url overrides the openai endpoint."
}

// Data returns the current configuration data.
func (s *LLMSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"backend":  string(s.Backend),
		"base_url": s.BaseURL,
	}
}

// SetData updates the configuration from the provided data.
func (s *LLMSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if backend, ok := data["backend"].(string); ok {
		s.Backend = llm.Backend(backend)
	}

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}

	return nil
}

// Validate validates the current configuration.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.Backend.Valid() {
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Backend = llm.BackendGenAI
	s.BaseURL = ""
}

// GetBackend returns the configured backend.
func (s *LLMSection) GetBackend() llm.Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Backend
}

// GetBaseURL returns the configured base URL.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}
