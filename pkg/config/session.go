package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/pagechat/pkg/types"
)

const (
	// SectionIDSession is the identifier for the last question/answer section
	SectionIDSession = "session"
)

// SessionSection remembers the last question and response between popup opens.
// Empty values are not persisted, so clearing the section removes its keys.
type SessionSection struct {
	LastQuestion string
	LastResponse string
	mu           sync.RWMutex
}

// NewSessionSection creates an empty session section.
func NewSessionSection() *SessionSection {
	return &SessionSection{}
}

// ID returns the section identifier.
func (s *SessionSection) ID() string {
	return SectionIDSession
}

// Title returns the section title.
func (s *SessionSection) Title() string {
	return "Session"
}

// Description returns the section description.
func (s *SessionSection) Description() string {
	return "The last question asked and the response it received."
}

// Data returns the non-empty session values.
func (s *SessionSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]any, 2)
	if s.LastQuestion != "" {
		data["last_question"] = s.LastQuestion
	}
	if s.LastResponse != "" {
		data["last_response"] = s.LastResponse
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *SessionSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value, exists := data["last_question"]; exists {
		question, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid value type for last_question: expected string, got %T", value)
		}
		s.LastQuestion = question
	}
	if value, exists := data["last_response"]; exists {
		response, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid value type for last_response: expected string, got %T", value)
		}
		s.LastResponse = response
	}
	return nil
}

// Validate always succeeds; any string is a valid question or response.
func (s *SessionSection) Validate() error {
	return nil
}

// Reset empties the session.
func (s *SessionSection) Reset() {
	s.Clear()
}

// Clear forgets the last question and response.
func (s *SessionSection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastQuestion = ""
	s.LastResponse = ""
}

// Get returns a snapshot of the session memory.
func (s *SessionSection) Get() types.SessionMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.SessionMemory{
		LastQuestion: s.LastQuestion,
		LastResponse: s.LastResponse,
	}
}

// SetLastQuestion records the question being asked.
func (s *SessionSection) SetLastQuestion(question string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastQuestion = question
}

// SetLastResponse records the response that was displayed.
func (s *SessionSection) SetLastResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastResponse = response
}
