// Package gemini provides a Provider backed by the native Gemini SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/entrhq/pagechat/pkg/types"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no content")

// Provider calls generateContent on a single Gemini model.
type Provider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewProvider creates a Gemini provider for apiKey and model.
func NewProvider(ctx context.Context, apiKey string, model types.Model) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if !model.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownModel, model)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{
		client: client,
		model:  client.GenerativeModel(model.String()),
		name:   model.String(),
	}, nil
}

// GenerateText sends prompt as a single text part and joins the text of every candidate.
func (p *Provider) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// GetModel returns the model name being used.
func (p *Provider) GetModel() string {
	return p.name
}

// Close closes the underlying client.
func (p *Provider) Close() error {
	return p.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", ErrEmptyResponse
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String(), nil
}
