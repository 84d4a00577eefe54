package prompt

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	got := Build("<body><h1>Hi</h1></body>", "What does the heading say?")
	want := "Based on the following content from the webpage, please answer the user's question.\n\n" +
		"Page Content:\n<body><h1>Hi</h1></body>\n\n" +
		"User's Question:\nWhat does the heading say?"
	assert.Equal(t, want, got)
}

func TestBuild_EmptyContent(t *testing.T) {
	got := Build("", "anything?")
	assert.Contains(t, got, "Page Content:\nNo content found.\n\n")
	assert.True(t, strings.HasSuffix(got, "User's Question:\nanything?"))
}

func TestBuild_PreservesFormatVerbs(t *testing.T) {
	got := Build("<p>100%s done</p>", "why %d?")
	assert.Contains(t, got, "<p>100%s done</p>")
	assert.Contains(t, got, "why %d?")
}

func TestApproximateTokens(t *testing.T) {
	assert.Equal(t, 0, ApproximateTokens(""))
	assert.Equal(t, 1, ApproximateTokens("abc"))
	assert.Equal(t, 2, ApproximateTokens("abcde"))
	assert.Equal(t, 131250, ApproximateTokens(strings.Repeat("<p>x</p>", 65625)))
}

func TestEstimateTokens_Fallback(t *testing.T) {
	origLoad := loadEncoding
	t.Cleanup(func() {
		loadEncoding = origLoad
		encoder = nil
		encoderOnce = sync.Once{}
	})

	loadEncoding = func() (*tiktoken.Tiktoken, error) {
		return nil, errors.New("offline")
	}
	encoder = nil
	encoderOnce = sync.Once{}

	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 250, EstimateTokens(strings.Repeat("x", 1000)))
}
