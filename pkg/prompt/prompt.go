// Package prompt assembles the text sent to the generative API.
package prompt

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// NoContent stands in for a page that yielded no markup.
	NoContent = "No content found."

	template = "Based on the following content from the webpage, please answer the user's question.\n\nPage Content:\n%s\n\nUser's Question:\n%s"

	encodingName = "cl100k_base"
)

// Build embeds the page content and the user's question in the fixed template.
func Build(pageContent, question string) string {
	if pageContent == "" {
		pageContent = NoContent
	}
	return fmt.Sprintf(template, pageContent, question)
}

var (
	encoder     *tiktoken.Tiktoken
	encoderOnce sync.Once

	// loadEncoding may fetch the BPE ranks over the network on first use.
	loadEncoding = func() (*tiktoken.Tiktoken, error) {
		return tiktoken.GetEncoding(encodingName)
	}
)

// ApproximateTokens counts four bytes per token. It never touches the
// network, so it is safe on the request path.
func ApproximateTokens(text string) int {
	return (len(text) + 3) / 4
}

// EstimateTokens returns a cl100k_base token count for text.
// Gemini does not use cl100k_base, so this is only a size hint. The first
// call may download the encoding; when it is unavailable the count falls
// back to ApproximateTokens.
func EstimateTokens(text string) int {
	encoderOnce.Do(func() {
		enc, err := loadEncoding()
		if err == nil {
			encoder = enc
		}
	})

	if encoder == nil {
		return ApproximateTokens(text)
	}
	return len(encoder.Encode(text, nil, nil))
}
