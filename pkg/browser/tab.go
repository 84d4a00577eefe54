package browser

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"
)

// tab is the part of playwright.Page used to pick and read the active tab.
type tab interface {
	URL() string
	Title() (string, error)
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

// ActiveTab describes the tab FetchPageMarkup would read.
func (m *SessionManager) ActiveTab(ctx context.Context) (TabInfo, error) {
	var info TabInfo
	err := withContext(ctx, func() error {
		t, err := m.activeTab()
		if err != nil {
			return err
		}
		title, _ := t.Title()
		info = TabInfo{URL: t.URL(), Title: title}
		return nil
	})
	return info, err
}

// FetchPageMarkup returns the serialized markup of the active tab: the whole
// document when includeAll is set, the body otherwise. Cleaning, when
// enabled, is applied afterwards.
func (m *SessionManager) FetchPageMarkup(ctx context.Context, includeAll bool) (string, error) {
	var markup string
	err := withContext(ctx, func() error {
		t, err := m.activeTab()
		if err != nil {
			return err
		}
		markup, err = readMarkup(t, includeAll)
		return err
	})
	if err != nil {
		return "", err
	}

	if !m.clean || markup == "" {
		return markup, nil
	}

	cleaned, err := CleanMarkup(markup, m.maxLength)
	if err != nil {
		m.logger.Warnf("Markup cleaning failed, using raw markup: %v", err)
		return markup, nil
	}
	if cleaned.Truncated {
		m.logger.Infof("Cleaned markup truncated at %d characters", m.maxLength)
	}
	return cleaned.HTML, nil
}

func (m *SessionManager) activeTab() (tab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bctx, err := m.currentContext()
	if err != nil {
		return nil, err
	}

	pages := bctx.Pages()
	tabs := make([]tab, len(pages))
	for i, p := range pages {
		tabs[i] = p
	}

	t, err := selectActiveTab(tabs, m.ignore)
	if err != nil {
		return nil, err
	}
	m.logger.Debugf("Active tab: %s", t.URL())
	return t, nil
}

// selectActiveTab picks the first visible tab whose URL matches no ignore
// pattern. With no visible tab, a single remaining tab is used; anything
// else is ambiguous.
func selectActiveTab(tabs []tab, ignore []glob.Glob) (tab, error) {
	candidates := make([]tab, 0, len(tabs))
	for _, t := range tabs {
		if !ignored(t.URL(), ignore) {
			candidates = append(candidates, t)
		}
	}

	for _, t := range candidates {
		visible, err := t.Evaluate(visibilityScript)
		if err != nil {
			continue
		}
		if v, ok := visible.(bool); ok && v {
			return t, nil
		}
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return nil, ErrNoActiveTab
}

func ignored(url string, ignore []glob.Glob) bool {
	for _, g := range ignore {
		if g.Match(url) {
			return true
		}
	}
	return false
}

func readMarkup(t tab, includeAll bool) (string, error) {
	result, err := t.Evaluate(pageMarkupScript, includeAll)
	if err != nil {
		return "", fmt.Errorf("failed to read page markup: %w", err)
	}
	if result == nil {
		return "", nil
	}
	markup, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected markup result type %T", result)
	}
	return markup, nil
}

var _ tab = playwright.Page(nil)
