package llm

import "context"

type Message struct {
	Role    string
	Content string
}

// Client is the boundary to the external inference service.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
