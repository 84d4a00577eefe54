// Package browser attaches to a Chromium browser through Playwright and reads
// the markup of the tab the user is looking at.
package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gobwas/glob"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagechat/pkg/logging"
)

// SessionManager owns the Playwright driver and the browser pagechat reads
// tabs from. The browser is either an existing one reached over CDP or a
// private one started by Launch.
type SessionManager struct {
	mu          sync.RWMutex
	playwright  *playwright.Playwright
	browser     playwright.Browser
	launched    playwright.BrowserContext
	ignore      []glob.Glob
	timeout     float64
	clean       bool
	maxLength   int
	initialized bool
	logger      *logging.Logger
}

// NewSessionManager creates a session manager. It fails if an ignore pattern
// does not compile.
func NewSessionManager(opts Options, logger *logging.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	ignore, err := compilePatterns(opts.IgnoreURLs)
	if err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}

	return &SessionManager{
		ignore:    ignore,
		timeout:   opts.Timeout,
		clean:     opts.CleanMarkup,
		maxLength: opts.MaxLength,
		logger:    logger,
	}, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Initialize installs and starts the Playwright driver.
// This must be called before Connect or Launch.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Driver output would corrupt the terminal UI.
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Connect attaches to a running Chromium exposing the DevTools protocol at
// endpoint, for example http://localhost:9222.
func (m *SessionManager) Connect(endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return fmt.Errorf("session manager not initialized")
	}
	if m.browser != nil {
		return fmt.Errorf("browser already attached")
	}

	browser, err := m.playwright.Chromium.ConnectOverCDP(endpoint, playwright.BrowserTypeConnectOverCDPOptions{
		Timeout: playwright.Float(m.timeout),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	m.browser = browser
	m.logger.Infof("Connected to browser at %s (%d contexts)", endpoint, len(browser.Contexts()))
	return nil
}

// Launch starts a private Chromium with a single empty tab.
func (m *SessionManager) Launch(opts LaunchOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return fmt.Errorf("session manager not initialized")
	}
	if m.browser != nil {
		return fmt.Errorf("browser already attached")
	}

	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}

	browser, err := m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("failed to create context: %w", err)
	}
	bctx.SetDefaultTimeout(m.timeout)

	if _, err := bctx.NewPage(); err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		return fmt.Errorf("failed to create page: %w", err)
	}

	m.browser = browser
	m.launched = bctx
	m.logger.Infof("Launched browser (headless=%v)", opts.Headless)
	return nil
}

// Navigate loads url in the first tab of the current window, opening a tab
// when the window has none.
func (m *SessionManager) Navigate(ctx context.Context, url string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bctx, err := m.currentContext()
	if err != nil {
		return err
	}

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = bctx.NewPage(); err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	waitUntil := playwright.WaitUntilState("load")
	return withContext(ctx, func() error {
		if _, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: &waitUntil,
			Timeout:   playwright.Float(m.timeout),
		}); err != nil {
			return fmt.Errorf("failed to navigate to %s: %w", url, err)
		}
		m.logger.Infof("Navigated to %s", url)
		return nil
	})
}

// currentContext returns the window tabs are read from. Callers hold m.mu.
func (m *SessionManager) currentContext() (playwright.BrowserContext, error) {
	if m.browser == nil {
		return nil, ErrNotAttached
	}
	if m.launched != nil {
		return m.launched, nil
	}
	contexts := m.browser.Contexts()
	if len(contexts) == 0 {
		return nil, ErrNoActiveTab
	}
	return contexts[0], nil
}

// Shutdown releases the browser and stops Playwright. A browser reached over
// CDP is disconnected from, not closed.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.launched != nil {
		_ = m.launched.Close()
		m.launched = nil
	}
	if m.browser != nil {
		_ = m.browser.Close()
		m.browser = nil
	}

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}

// withContext runs fn, returning early with ctx's error if ctx ends first.
// Playwright calls are not cancellable, so fn keeps running until its own
// timeout.
func withContext(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
