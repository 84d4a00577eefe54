package config

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
)

const (
	// SectionIDBrowser is the identifier for the browser automation section
	SectionIDBrowser = "browser"

	defaultBrowserTimeoutMS = 30000.0
	defaultMaxMarkupLength  = 500000
)

// defaultIgnoreURLs are browser-internal pages that never count as the active tab.
var defaultIgnoreURLs = []string{
	"devtools://*",
	"chrome://*",
	"chrome-extension://*",
}

// BrowserSection configures how pagechat attaches to a browser and reads tabs.
type BrowserSection struct {
	// CDPEndpoint is the remote debugging endpoint of a running browser,
	// e.g. http://localhost:9222. Empty means a private browser is launched.
	CDPEndpoint string

	// IgnoreURLs are glob patterns for tabs that are skipped when looking for
	// the active tab.
	IgnoreURLs []string

	// TimeoutMS bounds each browser operation, in milliseconds.
	TimeoutMS float64

	// CleanMarkup strips scripts, styles and other noise before prompting.
	CleanMarkup bool

	// MaxLength caps cleaned markup, in characters.
	MaxLength int

	mu sync.RWMutex
}

// NewBrowserSection creates a browser section with default settings.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Browser connection, ignored tab URLs and page markup capture options."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patterns := make([]any, len(s.IgnoreURLs))
	for i, p := range s.IgnoreURLs {
		patterns[i] = p
	}

	return map[string]any{
		"cdp_endpoint": s.CDPEndpoint,
		"ignore_urls":  patterns,
		"timeout_ms":   s.TimeoutMS,
		"clean_markup": s.CleanMarkup,
		"max_length":   s.MaxLength,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "cdp_endpoint":
			endpoint, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for cdp_endpoint: expected string, got %T", value)
			}
			s.CDPEndpoint = endpoint

		case "ignore_urls":
			patterns, err := toStringSlice(value)
			if err != nil {
				return fmt.Errorf("invalid value for ignore_urls: %w", err)
			}
			s.IgnoreURLs = patterns

		case "timeout_ms":
			// JSON numbers come as float64
			switch v := value.(type) {
			case float64:
				s.TimeoutMS = v
			case int:
				s.TimeoutMS = float64(v)
			default:
				return fmt.Errorf("invalid value type for timeout_ms: expected number, got %T", value)
			}

		case "clean_markup":
			enabled, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for clean_markup: expected bool, got %T", value)
			}
			s.CleanMarkup = enabled

		case "max_length":
			switch v := value.(type) {
			case float64:
				s.MaxLength = int(v)
			case int:
				s.MaxLength = v
			default:
				return fmt.Errorf("invalid value type for max_length: expected number, got %T", value)
			}
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must not be negative, got %v", s.TimeoutMS)
	}
	if s.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", s.MaxLength)
	}
	for _, pattern := range s.IgnoreURLs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid ignore_urls pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CDPEndpoint = ""
	s.IgnoreURLs = append([]string(nil), defaultIgnoreURLs...)
	s.TimeoutMS = defaultBrowserTimeoutMS
	s.CleanMarkup = false
	s.MaxLength = defaultMaxMarkupLength
}

// GetCDPEndpoint returns the configured remote debugging endpoint.
func (s *BrowserSection) GetCDPEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CDPEndpoint
}

// GetIgnoreURLs returns a copy of the ignored tab URL patterns.
func (s *BrowserSection) GetIgnoreURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.IgnoreURLs...)
}

// GetTimeoutMS returns the per-operation timeout in milliseconds.
func (s *BrowserSection) GetTimeoutMS() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.TimeoutMS
}

// GetCleanMarkup returns whether captured markup is cleaned, and the length cap.
func (s *BrowserSection) GetCleanMarkup() (bool, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CleanMarkup, s.MaxLength
}

func toStringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string entries, got %T", item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", value)
	}
}
