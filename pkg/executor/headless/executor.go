// Package headless answers questions without the terminal UI, for one-shot
// use from the command line and for YAML batch files.
package headless

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/popup"
	"github.com/entrhq/pagechat/pkg/types"
)

// ErrNoAPIKey is returned when a run has no Gemini API key to send.
var ErrNoAPIKey = errors.New("no Gemini API key: pass -api-key, set GEMINI_API_KEY or save one in the popup settings")

// Navigator loads a URL in the tab questions are asked about.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Summary reports how a run went.
type Summary struct {
	Asked  int
	Errors int
}

// Executor runs jobs through a popup controller.
type Executor struct {
	sender    popup.Sender
	settings  types.Settings
	navigator Navigator
	out       io.Writer
	logger    *logging.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithNavigator enables the job URL field.
func WithNavigator(n Navigator) Option {
	return func(e *Executor) {
		e.navigator = n
	}
}

// WithOutput sets where answers are written. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.out = w
	}
}

// NewExecutor creates an executor sending through sender with settings as
// the starting popup settings. Nothing a run does is persisted.
func NewExecutor(sender popup.Sender, settings types.Settings, logger *logging.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	e := &Executor{
		sender:   sender,
		settings: settings,
		out:      os.Stdout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run asks every question of job in order and writes Q:/A: blocks. Error
// results are printed and the run continues; a transport failure stops it.
func (e *Executor) Run(ctx context.Context, job *Job) (*Summary, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if e.settings.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	if job.URL != "" {
		if e.navigator == nil {
			return nil, fmt.Errorf("job sets url but no browser was launched")
		}
		if err := e.navigator.Navigate(ctx, job.URL); err != nil {
			return nil, err
		}
	}

	sender := &recordingSender{next: e.sender}
	controller := popup.NewController(newMemoryPersistence(e.settings), sender, e.logger)
	if err := controller.Mount(); err != nil {
		return nil, err
	}
	if job.Model != "" {
		if err := controller.SetModel(job.Model); err != nil {
			return nil, err
		}
	}
	if job.IncludeAll != nil {
		if err := controller.SetIncludeAll(*job.IncludeAll); err != nil {
			return nil, err
		}
	}

	summary := &Summary{}
	for i, question := range job.Questions {
		sender.reset()
		controller.SetQuestion(question)
		if err := controller.Ask(ctx); err != nil {
			return summary, err
		}

		state := controller.Snapshot()
		if _, err := fmt.Fprintf(e.out, "Q: %s\nA: %s\n\n", question, state.Response); err != nil {
			return summary, fmt.Errorf("failed to write answer: %w", err)
		}
		summary.Asked++

		if err := sender.lastErr(); err != nil {
			return summary, fmt.Errorf("question %d: %w", i+1, err)
		}
		if sender.lastWasError() {
			summary.Errors++
		}
		e.logger.Infof("Answered question %d of %d", i+1, len(job.Questions))
	}
	return summary, nil
}

// recordingSender remembers the outcome of the last send, which the
// controller folds into display text.
type recordingSender struct {
	next popup.Sender

	mu      sync.Mutex
	err     error
	isError bool
}

func (s *recordingSender) SendMessage(ctx context.Context, req types.AskRequest) (types.Result, error) {
	result, err := s.next.SendMessage(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.isError = err != nil || result.IsError()
	return result, err
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
	s.isError = false
}

func (s *recordingSender) lastErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *recordingSender) lastWasError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isError
}

// memoryPersistence keeps a run's state in memory so batch runs leave the
// user's stored settings and session alone.
type memoryPersistence struct {
	settings types.Settings
	session  types.SessionMemory
}

func newMemoryPersistence(settings types.Settings) *memoryPersistence {
	return &memoryPersistence{settings: settings}
}

func (m *memoryPersistence) LoadSettings() (types.Settings, error) { return m.settings, nil }

func (m *memoryPersistence) SaveSettings(s types.Settings) error {
	m.settings = s
	return nil
}

func (m *memoryPersistence) LoadSession() (types.SessionMemory, error) { return m.session, nil }

func (m *memoryPersistence) SaveLastQuestion(q string) error {
	m.session.LastQuestion = q
	return nil
}

func (m *memoryPersistence) SaveLastResponse(r string) error {
	m.session.LastResponse = r
	return nil
}

func (m *memoryPersistence) ClearSession() error {
	m.session = types.SessionMemory{}
	return nil
}
