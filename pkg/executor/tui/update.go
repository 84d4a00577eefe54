package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/pagechat/pkg/popup"
)

// Update handles all state updates for the popup.
//
// Uses a pointer receiver so overlay and widget changes persist.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() {
			m.refreshResponse()
		}
		return m, cmd

	case askDoneMsg:
		return m.handleAskDone(msg)

	case pageTitleMsg:
		m.pageTitle = msg.title
		return m, nil

	case toastMsg:
		m.toast = msg.text
		text := msg.text
		return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{text: text}
		})

	case toastExpiredMsg:
		if m.toast == msg.text {
			m.toast = ""
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.settings.active {
			return m.handleSettingsKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		return m.handleAsk()

	case "ctrl+l":
		if err := m.controller.Clear(); err != nil {
			m.logger.Warnf("Failed to clear session: %v", err)
		}
		m.textarea.Reset()
		m.refreshResponse()
		return m, nil

	case "ctrl+t":
		enabled := !m.controller.Snapshot().MarkdownEnabled
		if err := m.controller.SetMarkdownEnabled(enabled); err != nil {
			m.logger.Warnf("Failed to save markdown setting: %v", err)
		}
		m.refreshResponse()
		if enabled {
			return m, showToast("Markdown rendering on")
		}
		return m, showToast("Markdown rendering off")

	case "ctrl+o":
		return m, m.settings.open(m.controller)

	case "ctrl+y":
		return m, m.copyResponse()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *model) handleAsk() (tea.Model, tea.Cmd) {
	if m.busy() {
		return m, showToast("Still answering the previous question")
	}

	m.controller.SetQuestion(m.textarea.Value())
	m.asking = true
	m.refreshResponse()
	return m, tea.Batch(m.askCmd(), m.spinner.Tick, m.titleCmd())
}

func (m *model) handleAskDone(msg askDoneMsg) (tea.Model, tea.Cmd) {
	m.asking = false
	m.refreshResponse()

	if errors.Is(msg.err, popup.ErrAskInFlight) {
		return m, showToast("Still answering the previous question")
	}
	if msg.err != nil {
		m.logger.Errorf("Ask failed: %v", msg.err)
	}
	return m, nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	closed, cmd := m.settings.update(msg, m.controller)
	if closed {
		m.refreshResponse()
	}
	return m, cmd
}

func (m *model) copyResponse() tea.Cmd {
	response := m.controller.Snapshot().Response
	if response == "" {
		return showToast("Nothing to copy")
	}
	if err := copyToClipboard(response); err != nil {
		m.logger.Warnf("Clipboard copy failed: %v", err)
		return showToast("Copy failed: " + err.Error())
	}
	return showToast("Response copied")
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = m.width - 4
	m.viewport.Height = m.calculateViewportHeight()
	m.textarea.SetWidth(m.width - 6)
	m.ready = true
	m.refreshResponse()
	return m, nil
}

// calculateViewportHeight leaves room for the header, status bar, input box,
// tips and toast lines.
func (m *model) calculateViewportHeight() int {
	chrome := 3 + m.textarea.Height() + 2 + 2
	height := m.height - chrome
	if height < 3 {
		height = 3
	}
	return height
}
