package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/popup"
	"github.com/entrhq/pagechat/pkg/render"
)

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

const toastDuration = 2 * time.Second

// model is the Bubble Tea model for the popup. Popup state lives in the
// controller; the model holds only widgets and layout.
type model struct {
	ctx        context.Context
	controller *popup.Controller
	renderer   *render.Renderer
	logger     *logging.Logger

	// Bubble Tea components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	settings *settingsOverlay

	// asking is set from the key press until askDoneMsg arrives, covering
	// the gap before the controller marks itself loading.
	asking bool

	pageTitle   string
	lookupTitle func(ctx context.Context) string
	toast       string

	// Window dimensions
	width  int
	height int
	ready  bool
}

// askDoneMsg reports that Controller.Ask returned.
type askDoneMsg struct{ err error }

// pageTitleMsg carries the title of the tab currently being asked about.
type pageTitleMsg struct{ title string }

// toastMsg shows a short status line message.
type toastMsg struct{ text string }

// toastExpiredMsg clears the toast it was scheduled for.
type toastExpiredMsg struct{ text string }

func newModel(ctx context.Context, controller *popup.Controller, renderer *render.Renderer, logger *logging.Logger) *model {
	if logger == nil {
		logger = logging.Discard()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question about this page..."
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.Focus()

	vp := viewport.New(80, 10)
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = thinkingStyle

	state := controller.Snapshot()
	ta.SetValue(state.Question)

	m := &model{
		ctx:        ctx,
		controller: controller,
		renderer:   renderer,
		logger:     logger,
		viewport:   vp,
		textarea:   ta,
		spinner:    sp,
		settings:   newSettingsOverlay(),
	}
	m.refreshResponse()
	return m
}

// Init starts the cursor blink and the spinner.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m *model) busy() bool {
	return m.asking || m.controller.Snapshot().Loading
}

// askCmd runs Controller.Ask off the UI goroutine.
func (m *model) askCmd() tea.Cmd {
	ctx := m.ctx
	controller := m.controller
	return func() tea.Msg {
		return askDoneMsg{err: controller.Ask(ctx)}
	}
}

// titleCmd looks up the active tab's title, which changes whenever the
// user switches tabs.
func (m *model) titleCmd() tea.Cmd {
	if m.lookupTitle == nil {
		return nil
	}
	ctx := m.ctx
	lookup := m.lookupTitle
	return func() tea.Msg {
		return pageTitleMsg{title: lookup(ctx)}
	}
}

func showToast(text string) tea.Cmd {
	return func() tea.Msg { return toastMsg{text: text} }
}

// refreshResponse re-renders the response into the viewport.
func (m *model) refreshResponse() {
	m.viewport.SetContent(m.responseView())
	m.viewport.GotoTop()
}
