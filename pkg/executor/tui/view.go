package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/pagechat/pkg/types"
)

// View renders the popup.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.settings.active {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.settings.view(m.controller, m.width))
	}

	sections := []string{
		m.buildHeader(),
		m.buildStatusBar(),
		m.viewport.View(),
		inputBoxStyle.Width(m.width - 2).Render(m.textarea.View()),
		m.buildTips(),
		m.buildToast(),
	}
	return strings.Join(sections, "\n")
}

func (m *model) buildHeader() string {
	return headerStyle.Render("  Gemini Web Assistant")
}

func (m *model) buildStatusBar() string {
	state := m.controller.Snapshot()

	parts := []string{state.Model.String()}
	if state.IncludeAll {
		parts = append(parts, "whole document")
	} else {
		parts = append(parts, "body only")
	}
	if state.MarkdownEnabled {
		parts = append(parts, "markdown")
	}
	if state.APIKey == "" {
		parts = append(parts, errorStyle.Render("no API key (ctrl+o)"))
	}
	if m.pageTitle != "" {
		parts = append(parts, truncate(m.pageTitle, 40))
	}
	return statusBarStyle.Render(strings.Join(parts, " • "))
}

func (m *model) buildTips() string {
	return tipsStyle.Render("  Enter ask • Alt+Enter new line • Ctrl+L clear • Ctrl+T markdown • Ctrl+O settings • Ctrl+Y copy • Esc quit")
}

func (m *model) buildToast() string {
	if m.toast == "" {
		return ""
	}
	return statusBarStyle.Render(m.toast)
}

// responseView renders the response area content.
func (m *model) responseView() string {
	if m.busy() {
		return fmt.Sprintf("%s %s", m.spinner.View(), thinkingStyle.Render("Thinking..."))
	}

	state := m.controller.Snapshot()
	if state.Response == "" {
		return ""
	}

	width := m.viewport.Width
	if strings.HasPrefix(state.Response, types.ErrorPrefix) {
		return errorStyle.Width(width).Render(state.Response)
	}

	rendered := m.renderer.Render(state.Response, state.MarkdownEnabled, width)
	if state.MarkdownEnabled {
		return rendered
	}
	return responseStyle.Width(width).Render(rendered)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
