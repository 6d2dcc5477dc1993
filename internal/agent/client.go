package agent

import "context"

// Message is a minimal chat message passed to the model backend.
// Role must be one of "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// Client is the opaque generative-model collaborator: text in, text
// out, may fail. The gateway owns rate limiting, caching, and usage
// accounting around it.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
	Model() string
}
