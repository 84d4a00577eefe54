package responder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagechat/pkg/bridge"
	"github.com/entrhq/pagechat/pkg/browser"
	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/prompt"
	"github.com/entrhq/pagechat/pkg/types"
)

type fakePages struct {
	markup     string
	err        error
	includeAll []bool
}

func (f *fakePages) FetchPageMarkup(_ context.Context, includeAll bool) (string, error) {
	f.includeAll = append(f.includeAll, includeAll)
	return f.markup, f.err
}

type fakeProvider struct {
	model   string
	reply   string
	err     error
	prompts []string
	closed  bool
}

func (p *fakeProvider) GenerateText(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.reply, p.err
}

func (p *fakeProvider) GetModel() string { return p.model }

func (p *fakeProvider) Close() error {
	p.closed = true
	return nil
}

type factoryCall struct {
	apiKey string
	model  types.Model
}

func fakeFactory(p *fakeProvider, calls *[]factoryCall) llm.Factory {
	return func(_ context.Context, apiKey string, model types.Model) (llm.Provider, error) {
		*calls = append(*calls, factoryCall{apiKey: apiKey, model: model})
		p.model = model.String()
		return p, nil
	}
}

func TestHandle_Success(t *testing.T) {
	pages := &fakePages{markup: "<body>Hello</body>"}
	provider := &fakeProvider{reply: "It says hello."}
	var calls []factoryCall

	r := New(pages, fakeFactory(provider, &calls), nil)
	result := r.Handle(context.Background(), types.NewAskRequest("key-1", types.ModelGeminiPro, "What does it say?", false))

	assert.Equal(t, types.TextResult("It says hello."), result)
	assert.Equal(t, []bool{false}, pages.includeAll)
	assert.Equal(t, []factoryCall{{apiKey: "key-1", model: types.ModelGeminiPro}}, calls)
	require.Len(t, provider.prompts, 1)
	assert.Equal(t, prompt.Build("<body>Hello</body>", "What does it say?"), provider.prompts[0])
	assert.True(t, provider.closed)
}

func TestHandle_IncludeAllRouting(t *testing.T) {
	pages := &fakePages{markup: "<html></html>"}
	provider := &fakeProvider{reply: "ok"}
	var calls []factoryCall

	r := New(pages, fakeFactory(provider, &calls), nil)
	r.Handle(context.Background(), types.NewAskRequest("k", types.ModelGeminiFlash, "q", true))
	r.Handle(context.Background(), types.NewAskRequest("k", types.ModelGeminiFlash, "q", false))

	assert.Equal(t, []bool{true, false}, pages.includeAll)
}

func TestHandle_EmptyPage(t *testing.T) {
	pages := &fakePages{markup: ""}
	provider := &fakeProvider{reply: "Nothing there."}
	var calls []factoryCall

	r := New(pages, fakeFactory(provider, &calls), nil)
	result := r.Handle(context.Background(), types.NewAskRequest("k", types.ModelGeminiFlash, "Anything?", false))

	assert.Equal(t, "Nothing there.", result.Text)
	require.Len(t, provider.prompts, 1)
	assert.Contains(t, provider.prompts[0], "Page Content:\nNo content found.\n\n")
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name      string
		pages     *fakePages
		factory   func(p *fakeProvider, calls *[]factoryCall) llm.Factory
		provider  *fakeProvider
		req       types.AskRequest
		wantError string
	}{
		{
			name:      "no active tab",
			pages:     &fakePages{err: browser.ErrNoActiveTab},
			factory:   fakeFactory,
			provider:  &fakeProvider{},
			req:       types.NewAskRequest("k", types.ModelGeminiFlash, "q", false),
			wantError: "could not find active tab",
		},
		{
			name:      "provider error",
			pages:     &fakePages{markup: "<body></body>"},
			factory:   fakeFactory,
			provider:  &fakeProvider{err: errors.New("API key not valid")},
			req:       types.NewAskRequest("k", types.ModelGeminiFlash, "q", false),
			wantError: "API key not valid",
		},
		{
			name:  "factory error",
			pages: &fakePages{markup: "<body></body>"},
			factory: func(*fakeProvider, *[]factoryCall) llm.Factory {
				return func(context.Context, string, types.Model) (llm.Provider, error) {
					return nil, errors.New("Gemini API key is required")
				}
			},
			provider:  &fakeProvider{},
			req:       types.NewAskRequest("", types.ModelGeminiFlash, "q", false),
			wantError: "Gemini API key is required",
		},
		{
			name:      "unknown model",
			pages:     &fakePages{markup: "<body></body>"},
			factory:   fakeFactory,
			provider:  &fakeProvider{},
			req:       types.NewAskRequest("k", types.Model("gemini-1.0"), "q", false),
			wantError: `unknown model: "gemini-1.0"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []factoryCall
			r := New(tt.pages, tt.factory(tt.provider, &calls), nil)

			result := r.Handle(context.Background(), tt.req)
			require.True(t, result.IsError())
			assert.Empty(t, result.Text)
			assert.Equal(t, tt.wantError, result.Error)
		})
	}
}

func TestHandle_EmptyErrorMessage(t *testing.T) {
	provider := &fakeProvider{err: errors.New("")}
	var calls []factoryCall
	r := New(&fakePages{markup: "<body>x</body>"}, fakeFactory(provider, &calls), nil)

	result := r.Handle(context.Background(), types.NewAskRequest("key", types.ModelGeminiFlash, "q", false))

	require.True(t, result.IsError())
	assert.Equal(t, UnknownAPIErrorMessage, result.Error)
	assert.Equal(t, "Error: An unknown error occurred during the API call.", result.Display())
}

func TestHandle_UnknownModelSkipsPage(t *testing.T) {
	pages := &fakePages{markup: "<body></body>"}
	var calls []factoryCall

	r := New(pages, fakeFactory(&fakeProvider{}, &calls), nil)
	r.Handle(context.Background(), types.NewAskRequest("k", types.Model("nope"), "q", false))

	assert.Empty(t, pages.includeAll)
	assert.Empty(t, calls)
}

func TestHandle_ProviderClosedOnError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("boom")}
	var calls []factoryCall

	r := New(&fakePages{markup: "x"}, fakeFactory(provider, &calls), nil)
	r.Handle(context.Background(), types.NewAskRequest("k", types.ModelGeminiFlash, "q", false))

	assert.True(t, provider.closed)
}

func TestRegister_OverBridge(t *testing.T) {
	provider := &fakeProvider{reply: "Bridged answer"}
	var calls []factoryCall

	rt := bridge.NewRuntime(nil)
	New(&fakePages{markup: "<body>page</body>"}, fakeFactory(provider, &calls), nil).Register(rt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := rt.Start(ctx)
	require.NoError(t, err)

	result, err := bridge.NewClient(rt).SendMessage(ctx, types.NewAskRequest("k", types.ModelGeminiFlash, "q", false))
	require.NoError(t, err)
	assert.Equal(t, types.TextResult("Bridged answer"), result)
}

func TestHandle_LogsApproximateTokens(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	var calls []factoryCall
	r := New(&fakePages{markup: strings.Repeat("<p>page</p>", 1000)}, fakeFactory(provider, &calls), nil)

	var buf bytes.Buffer
	r.logger = logging.NewWriterLogger("responder", &buf)

	result := r.Handle(context.Background(), types.NewAskRequest("key", types.ModelGeminiFlash, "q", false))

	require.False(t, result.IsError())
	full := prompt.Build(strings.Repeat("<p>page</p>", 1000), "q")
	assert.Contains(t, buf.String(), fmt.Sprintf("~%d tokens", prompt.ApproximateTokens(full)))
}
