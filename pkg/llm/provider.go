// Package llm provides abstractions for the generative-text backends pagechat
// can call.
//
// Example usage:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/entrhq/pagechat/pkg/llm/gemini"
//	    "github.com/entrhq/pagechat/pkg/types"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    provider, err := gemini.NewProvider(ctx, os.Getenv("GEMINI_API_KEY"), types.ModelGeminiFlash)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer provider.Close()
//
//	    text, err := provider.GenerateText(ctx, "Hello!")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(text)
//	}
package llm

import (
	"context"

	"github.com/entrhq/pagechat/pkg/types"
)

// Provider defines the interface for generative-text integrations.
//
// A provider is bound to one API key and one model. The responder creates a
// provider per request because both values arrive with the request.
type Provider interface {
	// GenerateText sends prompt to the model and returns the complete text reply.
	//
	// Errors carry a human-readable message (invalid key, quota, network) that is
	// shown to the user verbatim after the "Error: " prefix.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GetModel returns the model name being used.
	GetModel() string

	// Close releases any connections held by the provider.
	Close() error
}

// Factory creates a Provider for a single request.
type Factory func(ctx context.Context, apiKey string, model types.Model) (Provider, error)

// Backend names a client library able to reach Gemini.
type Backend string

const (
	BackendGenAI  Backend = "genai"  // BackendGenAI uses the native Gemini SDK.
	BackendOpenAI Backend = "openai" // BackendOpenAI uses Gemini's OpenAI-compatible endpoint.
)

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	return b == BackendGenAI || b == BackendOpenAI
}
