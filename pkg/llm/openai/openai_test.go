package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagechat/pkg/types"
)

func TestNewProvider(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewProvider("", types.ModelGeminiFlash)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("rejects unknown model", func(t *testing.T) {
		_, err := NewProvider("key", types.Model("gpt-4o"))
		require.ErrorIs(t, err, types.ErrUnknownModel)
	})

	t.Run("defaults to the Gemini endpoint", func(t *testing.T) {
		p, err := NewProvider("key", types.ModelGeminiPro)
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, p.GetBaseURL())
		assert.Equal(t, "gemini-2.5-pro", p.GetModel())
	})

	t.Run("normalizes base url", func(t *testing.T) {
		p, err := NewProvider("key", types.ModelGeminiFlash, WithBaseURL("http://localhost:8080/v1"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/v1/", p.GetBaseURL())
	})
}

func TestProvider_GenerateText(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gemini-2.5-flash",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello"}}]
		}`)
	}))
	defer server.Close()

	p, err := NewProvider("test-key", types.ModelGeminiFlash, WithBaseURL(server.URL))
	require.NoError(t, err)

	text, err := p.GenerateText(context.Background(), "What is this page?")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gemini-2.5-flash", gotBody["model"])
	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "What is this page?", first["content"])
}

func TestProvider_GenerateText_Errors(t *testing.T) {
	t.Run("api error is returned without retry", func(t *testing.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error": {"message": "quota exceeded", "type": "rate_limit_error"}}`)
		}))
		defer server.Close()

		p, err := NewProvider("key", types.ModelGeminiFlash, WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = p.GenerateText(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id": "x", "object": "chat.completion", "created": 0, "model": "m", "choices": []}`)
		}))
		defer server.Close()

		p, err := NewProvider("key", types.ModelGeminiFlash, WithBaseURL(server.URL))
		require.NoError(t, err)

		_, err = p.GenerateText(context.Background(), "hi")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}
