// Package popup holds the state behind the question form: the user's
// settings, the draft question and the displayed response.
package popup

import (
	"context"
	"errors"
	"sync"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/types"
)

// Messages shown in place of a response when a question cannot be sent.
const (
	MissingAPIKeyMessage   = "Please enter your Gemini API key."
	MissingQuestionMessage = "Please enter a question."
	UnknownErrorMessage    = "An unknown error occurred."
)

// ErrAskInFlight is returned by Ask while an earlier question is unanswered.
var ErrAskInFlight = errors.New("a question is already being answered")

// State is a snapshot of the popup.
type State struct {
	APIKey          string
	Model           types.Model
	Question        string
	IncludeAll      bool
	MarkdownEnabled bool
	Response        string
	Loading         bool
}

// Persistence stores settings and the last question/response pair.
type Persistence interface {
	LoadSettings() (types.Settings, error)
	SaveSettings(settings types.Settings) error
	LoadSession() (types.SessionMemory, error)
	SaveLastQuestion(question string) error
	SaveLastResponse(response string) error
	ClearSession() error
}

// Sender delivers a question to the responder.
type Sender interface {
	SendMessage(ctx context.Context, req types.AskRequest) (types.Result, error)
}

// Controller owns the popup state. It is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	state   State
	persist Persistence
	sender  Sender
	logger  *logging.Logger
}

// NewController creates a controller with default settings. Call Mount to
// restore persisted values.
func NewController(persist Persistence, sender Sender, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	defaults := types.DefaultSettings()
	return &Controller{
		state: State{
			APIKey:          defaults.APIKey,
			Model:           defaults.Model,
			IncludeAll:      defaults.IncludeAll,
			MarkdownEnabled: defaults.MarkdownEnabled,
		},
		persist: persist,
		sender:  sender,
		logger:  logger,
	}
}

// Mount restores persisted settings and the last question and response.
// Values that were never stored keep their defaults.
func (c *Controller) Mount() error {
	settings, err := c.persist.LoadSettings()
	if err != nil {
		return err
	}
	session, err := c.persist.LoadSession()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if settings.APIKey != "" {
		c.state.APIKey = settings.APIKey
	}
	if settings.Model.Valid() {
		c.state.Model = settings.Model
	}
	c.state.IncludeAll = settings.IncludeAll
	c.state.MarkdownEnabled = settings.MarkdownEnabled

	if session.LastQuestion != "" {
		c.state.Question = session.LastQuestion
	}
	if session.LastResponse != "" {
		c.state.Response = session.LastResponse
	}
	return nil
}

// SetAPIKey updates and persists the API key.
func (c *Controller) SetAPIKey(key string) error {
	return c.updateSettings(func(s *State) { s.APIKey = key })
}

// SetModel updates and persists the model. Unknown models are rejected and
// leave the state unchanged.
func (c *Controller) SetModel(model types.Model) error {
	if !model.Valid() {
		return types.ErrUnknownModel
	}
	return c.updateSettings(func(s *State) { s.Model = model })
}

// SetIncludeAll updates and persists whether the whole document is sent.
func (c *Controller) SetIncludeAll(includeAll bool) error {
	return c.updateSettings(func(s *State) { s.IncludeAll = includeAll })
}

// SetMarkdownEnabled updates and persists how responses are rendered.
func (c *Controller) SetMarkdownEnabled(enabled bool) error {
	return c.updateSettings(func(s *State) { s.MarkdownEnabled = enabled })
}

func (c *Controller) updateSettings(apply func(*State)) error {
	c.mu.Lock()
	apply(&c.state)
	settings := types.Settings{
		APIKey:          c.state.APIKey,
		Model:           c.state.Model,
		IncludeAll:      c.state.IncludeAll,
		MarkdownEnabled: c.state.MarkdownEnabled,
	}
	c.mu.Unlock()

	return c.persist.SaveSettings(settings)
}

// SetQuestion updates the draft question. It is persisted when asked.
func (c *Controller) SetQuestion(question string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Question = question
}

// Ask sends the current question and waits for the answer, which becomes
// the response. Persistence failures are logged and do not stop the ask.
func (c *Controller) Ask(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Loading {
		c.mu.Unlock()
		return ErrAskInFlight
	}
	if c.state.APIKey == "" {
		c.state.Response = MissingAPIKeyMessage
		c.mu.Unlock()
		return nil
	}
	if c.state.Question == "" {
		c.state.Response = MissingQuestionMessage
		c.mu.Unlock()
		return nil
	}

	c.state.Loading = true
	c.state.Response = ""
	req := types.NewAskRequest(c.state.APIKey, c.state.Model, c.state.Question, c.state.IncludeAll)
	c.mu.Unlock()

	if err := c.persist.SaveLastQuestion(req.Question); err != nil {
		c.logger.Warnf("Failed to save last question: %v", err)
	}

	var response string
	result, err := c.sender.SendMessage(ctx, req)
	if err != nil {
		c.logger.Errorf("Error sending message to responder: %v", err)
		msg := err.Error()
		if msg == "" {
			msg = UnknownErrorMessage
		}
		response = types.FormatError(msg)
	} else {
		response = result.Display()
	}

	c.mu.Lock()
	c.state.Response = response
	c.state.Loading = false
	c.mu.Unlock()

	if err := c.persist.SaveLastResponse(response); err != nil {
		c.logger.Warnf("Failed to save last response: %v", err)
	}
	return nil
}

// Clear empties the question and response and forgets the stored pair.
// Settings are kept.
func (c *Controller) Clear() error {
	c.mu.Lock()
	c.state.Question = ""
	c.state.Response = ""
	c.mu.Unlock()

	return c.persist.ClearSession()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
