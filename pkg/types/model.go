package types

import (
	"errors"
	"fmt"
)

// Model identifies a generative model the responder may call.
type Model string

const (
	ModelGeminiFlash Model = "gemini-2.5-flash" // ModelGeminiFlash is the fast, default model.
	ModelGeminiPro   Model = "gemini-2.5-pro"   // ModelGeminiPro is the larger, slower model.

	// DefaultModel is used when no model has been configured.
	DefaultModel = ModelGeminiFlash
)

// ErrUnknownModel is returned when a model identifier is not one of the known models.
var ErrUnknownModel = errors.New("unknown model")

// Models returns the known models in display order.
func Models() []Model {
	return []Model{ModelGeminiFlash, ModelGeminiPro}
}

// ParseModel converts s into a Model, rejecting identifiers that are not known.
func ParseModel(s string) (Model, error) {
	m := Model(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, s)
	}
	return m, nil
}

// Valid reports whether m is one of the known models.
func (m Model) Valid() bool {
	for _, known := range Models() {
		if m == known {
			return true
		}
	}
	return false
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}

// Next returns the model following m in display order, wrapping around.
func (m Model) Next() Model {
	models := Models()
	for i, known := range models {
		if m == known {
			return models[(i+1)%len(models)]
		}
	}
	return DefaultModel
}

// Prev returns the model preceding m in display order, wrapping around.
func (m Model) Prev() Model {
	models := Models()
	for i, known := range models {
		if m == known {
			return models[(i+len(models)-1)%len(models)]
		}
	}
	return DefaultModel
}
