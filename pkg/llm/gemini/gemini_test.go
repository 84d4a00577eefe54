package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagechat/pkg/types"
)

func TestNewProvider_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewProvider(ctx, "", types.ModelGeminiFlash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	_, err = NewProvider(ctx, "key", types.Model("gpt-4o"))
	require.ErrorIs(t, err, types.ErrUnknownModel)
}

func TestResponseText(t *testing.T) {
	t.Run("joins text parts across candidates", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello"), genai.Text(", ")}}},
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("world")}}},
			},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, "Hello, world", text)
	})

	t.Run("skips non-text parts and empty content", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: nil},
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("ok")}}},
			},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, ErrEmptyResponse)

		_, err = responseText(nil)
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("blocked prompt", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
		}
		_, err := responseText(resp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prompt blocked")
	})
}
