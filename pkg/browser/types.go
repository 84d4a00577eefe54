package browser

import (
	"errors"
)

// ErrNoActiveTab is returned when no tab in the current window can be read.
var ErrNoActiveTab = errors.New("could not find active tab")

// ErrNotAttached is returned when ActiveTab is used before Connect or Launch.
var ErrNotAttached = errors.New("browser not attached")

// Options configures tab discovery and markup capture.
type Options struct {
	// IgnoreURLs are glob patterns for tabs that never count as active
	IgnoreURLs []string

	// Timeout bounds browser operations, in milliseconds (0 means default)
	Timeout float64

	// CleanMarkup strips scripts, styles and comments from captured markup
	CleanMarkup bool

	// MaxLength caps cleaned markup, in characters (0 means default)
	MaxLength int
}

// LaunchOptions configures a privately launched browser.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// TabInfo describes the tab chosen as active.
type TabInfo struct {
	URL   string
	Title string
}

// Default values for browser operations
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultMaxLength      = 500000  // characters of cleaned markup
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Scripts evaluated inside the tab.
const (
	// pageMarkupScript receives includeAll and returns the serialized document
	// element or body.
	pageMarkupScript = `(includeAll) => {
	if (includeAll) {
		return document.documentElement.outerHTML;
	}
	return document.body ? document.body.outerHTML : "";
}`

	visibilityScript = `() => document.visibilityState === "visible"`
)
