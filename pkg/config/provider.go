package config

import (
	"context"
	"fmt"
	"os"

	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/llm/gemini"
	"github.com/entrhq/pagechat/pkg/llm/openai"
	"github.com/entrhq/pagechat/pkg/types"
)

// APIKeyEnvVar is the environment variable consulted for the Gemini API key.
const APIKeyEnvVar = "GEMINI_API_KEY"

// ResolveAPIKey picks the API key by precedence:
// CLI flag > environment variable > config file.
// An empty result is allowed; the popup asks the user to enter a key.
func ResolveAPIKey(cliAPIKey string) string {
	if cliAPIKey != "" {
		return cliAPIKey
	}
	if envKey := os.Getenv(APIKeyEnvVar); envKey != "" {
		return envKey
	}
	if settings := GetSettings(); settings != nil {
		return settings.GetAPIKey()
	}
	return ""
}

// BuildFactory creates the provider factory the responder uses, resolving the
// backend and base URL by precedence: CLI flags > config file > defaults.
func BuildFactory(cliBackend, cliBaseURL string) (llm.Factory, error) {
	backend := llm.Backend(cliBackend)
	baseURL := cliBaseURL

	if section := GetLLM(); section != nil {
		if backend == "" {
			backend = section.GetBackend()
		}
		if baseURL == "" {
			baseURL = section.GetBaseURL()
		}
	}

	if backend == "" {
		backend = llm.BackendGenAI
	}

	return NewFactory(backend, baseURL)
}

// NewFactory returns a factory creating providers for backend.
// The API key and model come from each request, so providers are per call.
func NewFactory(backend llm.Backend, baseURL string) (llm.Factory, error) {
	switch backend {
	case llm.BackendGenAI:
		return func(ctx context.Context, apiKey string, model types.Model) (llm.Provider, error) {
			provider, err := gemini.NewProvider(ctx, apiKey, model)
			if err != nil {
				return nil, err
			}
			return provider, nil
		}, nil

	case llm.BackendOpenAI:
		var opts []openai.ProviderOption
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		return func(_ context.Context, apiKey string, model types.Model) (llm.Provider, error) {
			provider, err := openai.NewProvider(apiKey, model, opts...)
			if err != nil {
				return nil, err
			}
			return provider, nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown LLM backend %q", backend)
	}
}
