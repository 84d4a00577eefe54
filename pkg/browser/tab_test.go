package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTab struct {
	url      string
	title    string
	visible  bool
	markup   map[bool]interface{}
	evalErr  error
	lastArgs []interface{}
}

func (f *fakeTab) URL() string { return f.url }

func (f *fakeTab) Title() (string, error) { return f.title, nil }

func (f *fakeTab) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	if expression == visibilityScript {
		return f.visible, nil
	}
	f.lastArgs = arg
	includeAll, _ := arg[0].(bool)
	return f.markup[includeAll], nil
}

func defaultIgnore(t *testing.T) []glob.Glob {
	t.Helper()
	patterns, err := compilePatterns([]string{"devtools://*", "chrome://*", "chrome-extension://*"})
	require.NoError(t, err)
	return patterns
}

func TestSelectActiveTab(t *testing.T) {
	ignore := defaultIgnore(t)

	t.Run("first visible tab wins", func(t *testing.T) {
		hidden := &fakeTab{url: "https://a.example"}
		visible := &fakeTab{url: "https://b.example", visible: true}
		other := &fakeTab{url: "https://c.example", visible: true}

		got, err := selectActiveTab([]tab{hidden, visible, other}, ignore)
		require.NoError(t, err)
		assert.Same(t, visible, got)
	})

	t.Run("ignored tabs are skipped even when visible", func(t *testing.T) {
		devtools := &fakeTab{url: "devtools://devtools/bundled/inspector.html", visible: true}
		page := &fakeTab{url: "https://example.com", visible: true}

		got, err := selectActiveTab([]tab{devtools, page}, ignore)
		require.NoError(t, err)
		assert.Same(t, page, got)
	})

	t.Run("single hidden tab is used", func(t *testing.T) {
		internal := &fakeTab{url: "chrome://newtab/"}
		page := &fakeTab{url: "https://example.com"}

		got, err := selectActiveTab([]tab{internal, page}, ignore)
		require.NoError(t, err)
		assert.Same(t, page, got)
	})

	t.Run("several hidden tabs are ambiguous", func(t *testing.T) {
		_, err := selectActiveTab([]tab{
			&fakeTab{url: "https://a.example"},
			&fakeTab{url: "https://b.example"},
		}, ignore)
		assert.ErrorIs(t, err, ErrNoActiveTab)
	})

	t.Run("no tabs", func(t *testing.T) {
		_, err := selectActiveTab(nil, ignore)
		assert.ErrorIs(t, err, ErrNoActiveTab)
	})

	t.Run("evaluation failure counts as hidden", func(t *testing.T) {
		broken := &fakeTab{url: "https://a.example", evalErr: errors.New("detached")}
		page := &fakeTab{url: "https://b.example", visible: true}

		got, err := selectActiveTab([]tab{broken, page}, ignore)
		require.NoError(t, err)
		assert.Same(t, page, got)
	})
}

func TestReadMarkup(t *testing.T) {
	page := &fakeTab{markup: map[bool]interface{}{
		true:  "<html><head></head><body>hi</body></html>",
		false: "<body>hi</body>",
	}}

	body, err := readMarkup(page, false)
	require.NoError(t, err)
	assert.Equal(t, "<body>hi</body>", body)
	assert.Equal(t, []interface{}{false}, page.lastArgs)

	all, err := readMarkup(page, true)
	require.NoError(t, err)
	assert.Equal(t, "<html><head></head><body>hi</body></html>", all)
	assert.Equal(t, []interface{}{true}, page.lastArgs)
}

func TestReadMarkup_Results(t *testing.T) {
	t.Run("nil result is empty", func(t *testing.T) {
		got, err := readMarkup(&fakeTab{markup: map[bool]interface{}{false: nil}}, false)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("non-string result", func(t *testing.T) {
		_, err := readMarkup(&fakeTab{markup: map[bool]interface{}{false: 42}}, false)
		require.Error(t, err)
	})

	t.Run("evaluation error", func(t *testing.T) {
		_, err := readMarkup(&fakeTab{evalErr: errors.New("no frame")}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no frame")
	})
}

func TestNewSessionManager(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		m, err := NewSessionManager(Options{}, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultTimeout, m.timeout)
		assert.Equal(t, DefaultMaxLength, m.maxLength)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := NewSessionManager(Options{IgnoreURLs: []string{"chrome://[*"}}, nil)
		require.Error(t, err)
	})
}

func TestSessionManager_NotAttached(t *testing.T) {
	m, err := NewSessionManager(Options{}, nil)
	require.NoError(t, err)

	_, err = m.FetchPageMarkup(context.Background(), false)
	assert.ErrorIs(t, err, ErrNotAttached)

	_, err = m.ActiveTab(context.Background())
	assert.ErrorIs(t, err, ErrNotAttached)

	assert.Error(t, m.Connect("http://localhost:9222"))
	assert.NoError(t, m.Shutdown())
}

func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := withContext(ctx, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	block := make(chan struct{})
	defer close(block)
	ctx2, cancel2 := context.WithCancel(context.Background())
	go cancel2()
	err = withContext(ctx2, func() error {
		<-block
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
