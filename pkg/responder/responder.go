// Package responder answers ASK_GEMINI messages: it reads the active tab,
// builds the prompt and asks the model.
package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/entrhq/pagechat/pkg/bridge"
	"github.com/entrhq/pagechat/pkg/llm"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/prompt"
	"github.com/entrhq/pagechat/pkg/types"
)

// UnknownAPIErrorMessage is reported for failures that carry no message.
const UnknownAPIErrorMessage = "An unknown error occurred during the API call."

// PageSource reads markup from the tab the user is looking at.
type PageSource interface {
	FetchPageMarkup(ctx context.Context, includeAll bool) (string, error)
}

// Responder holds no per-request state; a provider is created for every
// request from the key and model it carries.
type Responder struct {
	pages   PageSource
	factory llm.Factory
	logger  *logging.Logger
}

// New creates a responder reading pages from pages and models from factory.
func New(pages PageSource, factory llm.Factory, logger *logging.Logger) *Responder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Responder{
		pages:   pages,
		factory: factory,
		logger:  logger,
	}
}

// Register installs the responder as the ASK_GEMINI listener on rt.
func (r *Responder) Register(rt *bridge.Runtime) {
	rt.OnMessage(types.MessageTypeAskGemini, r.handleMessage)
}

func (r *Responder) handleMessage(ctx context.Context, payload json.RawMessage) types.Result {
	var req types.AskRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		r.logger.Errorf("Undecodable request: %v", err)
		return types.ErrorResult(fmt.Sprintf("invalid request: %v", err))
	}
	return r.Handle(ctx, req)
}

// Handle answers req. Failures are reported in the result, never as a Go
// error.
func (r *Responder) Handle(ctx context.Context, req types.AskRequest) types.Result {
	start := time.Now()

	text, err := r.answer(ctx, req)
	if err != nil {
		r.logger.Errorf("Request failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		message := err.Error()
		if message == "" {
			message = UnknownAPIErrorMessage
		}
		return types.ErrorResult(message)
	}

	r.logger.Infof("Answered in %s (%d chars)", time.Since(start).Round(time.Millisecond), len(text))
	return types.TextResult(text)
}

func (r *Responder) answer(ctx context.Context, req types.AskRequest) (string, error) {
	if !req.Model.Valid() {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownModel, req.Model)
	}

	markup, err := r.pages.FetchPageMarkup(ctx, req.IncludeAll)
	if err != nil {
		return "", err
	}

	full := prompt.Build(markup, req.Question)
	r.logger.Infof("Asking %s (includeAll=%v, markup=%d chars, ~%d tokens)",
		req.Model, req.IncludeAll, len(markup), prompt.ApproximateTokens(full))

	provider, err := r.factory(ctx, req.APIKey, req.Model)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := provider.Close(); err != nil {
			r.logger.Warnf("Failed to close provider: %v", err)
		}
	}()

	return provider.GenerateText(ctx, full)
}
