package types

// MessageType is the envelope discriminator carried by every bridge message.
type MessageType string

const (
	MessageTypeAskGemini MessageType = "ASK_GEMINI" // MessageTypeAskGemini asks the responder a question about the active tab.
)

// AskRequest is the message the popup sends to the background responder.
// It is created fresh for every ask; its fields are persisted individually.
type AskRequest struct {
	// Type is always MessageTypeAskGemini for requests built by NewAskRequest.
	Type MessageType `json:"type"`

	// APIKey authenticates the call to the generative API.
	APIKey string `json:"apiKey"`

	// Model selects which generative model answers the question.
	Model Model `json:"model"`

	// Question is the user's question about the page.
	Question string `json:"question"`

	// IncludeAll selects the full document element instead of just the body.
	IncludeAll bool `json:"includeAll"`
}

// NewAskRequest creates an ASK_GEMINI request.
func NewAskRequest(apiKey string, model Model, question string, includeAll bool) AskRequest {
	return AskRequest{
		Type:       MessageTypeAskGemini,
		APIKey:     apiKey,
		Model:      model,
		Question:   question,
		IncludeAll: includeAll,
	}
}
