package bridge

import (
	"context"

	"github.com/entrhq/pagechat/pkg/types"
)

// Client is the popup's end of a runtime.
type Client struct {
	rt *Runtime
}

// NewClient returns a client sending through rt.
func NewClient(rt *Runtime) *Client {
	return &Client{rt: rt}
}

// SendMessage sends an ASK_GEMINI request and returns the responder's result.
func (c *Client) SendMessage(ctx context.Context, req types.AskRequest) (types.Result, error) {
	req.Type = types.MessageTypeAskGemini
	return c.rt.SendMessage(ctx, req)
}
