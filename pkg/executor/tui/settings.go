package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/pagechat/pkg/popup"
)

const (
	fieldAPIKey = iota
	fieldModel
	fieldIncludeAll
	fieldMarkdown
	fieldCount
)

// settingsOverlay edits the persisted settings. Model and toggles are saved
// as they change; the API key is saved when the overlay closes.
type settingsOverlay struct {
	active bool
	focus  int
	apiKey textinput.Model
	err    string
}

func newSettingsOverlay() *settingsOverlay {
	ti := textinput.New()
	ti.Placeholder = "Gemini API key"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Prompt = ""
	ti.CharLimit = 0
	return &settingsOverlay{apiKey: ti}
}

func (s *settingsOverlay) open(c *popup.Controller) tea.Cmd {
	s.active = true
	s.focus = fieldAPIKey
	s.err = ""
	s.apiKey.SetValue(c.Snapshot().APIKey)
	s.apiKey.CursorEnd()
	return s.apiKey.Focus()
}

func (s *settingsOverlay) close(c *popup.Controller) error {
	s.active = false
	s.apiKey.Blur()

	key := strings.TrimSpace(s.apiKey.Value())
	if key == c.Snapshot().APIKey {
		return nil
	}
	return c.SetAPIKey(key)
}

func (s *settingsOverlay) moveFocus(delta int) tea.Cmd {
	s.focus = (s.focus + delta + fieldCount) % fieldCount
	if s.focus == fieldAPIKey {
		return s.apiKey.Focus()
	}
	s.apiKey.Blur()
	return nil
}

// update handles a key while the overlay is open. It reports whether the
// overlay closed.
func (s *settingsOverlay) update(msg tea.KeyMsg, c *popup.Controller) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "ctrl+o":
		if err := s.close(c); err != nil {
			s.err = err.Error()
		}
		return true, nil
	case "tab", "down":
		return false, s.moveFocus(1)
	case "shift+tab", "up":
		return false, s.moveFocus(-1)
	}

	if s.focus == fieldAPIKey {
		var cmd tea.Cmd
		s.apiKey, cmd = s.apiKey.Update(msg)
		return false, cmd
	}

	state := c.Snapshot()
	var err error
	switch msg.String() {
	case "left", "h":
		if s.focus == fieldModel {
			err = c.SetModel(state.Model.Prev())
		}
	case "right", "l":
		if s.focus == fieldModel {
			err = c.SetModel(state.Model.Next())
		}
	case " ", "space", "x":
		switch s.focus {
		case fieldIncludeAll:
			err = c.SetIncludeAll(!state.IncludeAll)
		case fieldMarkdown:
			err = c.SetMarkdownEnabled(!state.MarkdownEnabled)
		}
	}
	if err != nil {
		s.err = err.Error()
	}
	return false, nil
}

func (s *settingsOverlay) view(c *popup.Controller, width int) string {
	state := c.Snapshot()

	var b strings.Builder
	b.WriteString(overlayTitleStyle.Render("Settings"))
	b.WriteString("\n\n")

	row := func(field int, label, value string) {
		marker := "  "
		style := labelStyle
		if s.focus == field {
			marker = focusedStyle.Render("> ")
			style = focusedStyle
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, style.Render(label), value)
	}

	row(fieldAPIKey, "Gemini API Key:", s.apiKey.View())
	row(fieldModel, "Model:         ", fmt.Sprintf("‹ %s ›", state.Model))
	row(fieldIncludeAll, "Include all:   ", toggle(state.IncludeAll))
	row(fieldMarkdown, "Markdown:      ", toggle(state.MarkdownEnabled))

	if s.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(s.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(overlayHelpStyle.Render("tab move • ←/→ model • space toggle • enter/esc close"))

	boxWidth := width - 8
	if boxWidth > 70 {
		boxWidth = 70
	}
	if boxWidth < 30 {
		boxWidth = 30
	}
	return overlayBoxStyle.Width(boxWidth).Render(b.String())
}

func toggle(on bool) string {
	if on {
		return enabledStyle.Render("[x] on")
	}
	return tipsStyle.Render("[ ] off")
}
