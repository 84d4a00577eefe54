// Package tui provides the interactive popup: a question box, the rendered
// response and a settings panel, driven by a popup.Controller.
//
// The package is split into:
// - executor.go: program lifecycle
// - model.go: model state and construction
// - update.go: Bubble Tea Update and key handling
// - view.go: rendering
// - settings.go: the settings overlay
// - styles.go: colors and styles
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/popup"
	"github.com/entrhq/pagechat/pkg/render"
)

// Executor runs the popup in the terminal.
type Executor struct {
	controller *popup.Controller
	renderer   *render.Renderer
	logger     *logging.Logger
	pageTitle  func(ctx context.Context) string
	setup      func(c *popup.Controller) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithPageTitle sets a lookup for the title of the page being asked about,
// shown in the status bar.
func WithPageTitle(fn func(ctx context.Context) string) Option {
	return func(e *Executor) {
		e.pageTitle = fn
	}
}

// WithSetup runs fn after the controller is mounted, before the popup is
// shown. Command line overrides are applied this way.
func WithSetup(fn func(c *popup.Controller) error) Option {
	return func(e *Executor) {
		e.setup = fn
	}
}

// NewExecutor creates a TUI executor for controller.
func NewExecutor(controller *popup.Controller, renderer *render.Renderer, logger *logging.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = logging.Discard()
	}
	if renderer == nil {
		renderer = render.NewRenderer("")
	}
	e := &Executor{
		controller: controller,
		renderer:   renderer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run mounts the controller and blocks until the user exits or ctx ends.
// Closing the popup cancels any question still being answered.
func (e *Executor) Run(ctx context.Context) error {
	if err := e.controller.Mount(); err != nil {
		return fmt.Errorf("failed to restore popup state: %w", err)
	}
	if e.setup != nil {
		if err := e.setup(e.controller); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, e.controller, e.renderer, e.logger)
	m.lookupTitle = e.pageTitle
	if e.pageTitle != nil {
		m.pageTitle = e.pageTitle(ctx)
	}
	e.logger.Infof("Popup opened")

	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}

	e.logger.Infof("Popup closed")
	return nil
}
