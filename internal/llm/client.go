package llm

import "context"

// Client is the interface the gateway provider must implement.
type Client interface {
	// Chat sends one chat completion request and returns the response.
	// conversationID namespaces the request on the provider side; each
	// task run passes its own uniquified identifier.
	Chat(ctx context.Context, conversationID string, messages []Message, tools []map[string]any) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
