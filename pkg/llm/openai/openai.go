// Package openai provides a Provider that reaches Gemini through its
// OpenAI-compatible chat completions endpoint.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("GEMINI_API_KEY"),
//	    types.ModelGeminiPro,
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	text, err := provider.GenerateText(context.Background(), "Hello!")
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/entrhq/pagechat/pkg/types"
)

const (
	// DefaultBaseURL is Gemini's OpenAI-compatible API base URL
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// ErrEmptyResponse is returned when the completion carried no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// Provider implements llm.Provider for OpenAI-compatible APIs.
type Provider struct {
	client  openai.Client
	apiKey  string
	baseURL string
	model   string
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// NewProvider creates a provider for apiKey and model.
//
// Example:
//
//	// Gemini's hosted endpoint
//	provider, _ := openai.NewProvider("AIza...", types.ModelGeminiFlash)
//
//	// A local proxy
//	provider, _ := openai.NewProvider("key", types.ModelGeminiFlash,
//	    openai.WithBaseURL("http://localhost:8080/v1/"))
func NewProvider(apiKey string, model types.Model, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if !model.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownModel, model)
	}

	p := &Provider{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   model.String(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !strings.HasSuffix(p.baseURL, "/") {
		p.baseURL += "/"
	}

	// Failures are terminal for a request; the user re-asks.
	p.client = openai.NewClient(
		option.WithAPIKey(p.apiKey),
		option.WithBaseURL(p.baseURL),
		option.WithMaxRetries(0),
	)
	return p, nil
}

// GenerateText sends prompt as a single user message and returns the first choice.
func (p *Provider) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", errors.New(apiErr.Message)
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.model
}

// GetBaseURL returns the base URL being used for API requests.
func (p *Provider) GetBaseURL() string {
	return p.baseURL
}

// Close is a no-op; the client holds no long-lived resources.
func (p *Provider) Close() error {
	return nil
}
