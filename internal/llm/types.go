// Package llm provides the language-model gateway client.
package llm

import "time"

// Message represents a chat message for the gateway.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
	ToolName   string     `json:"tool_name,omitempty"`    // For tool responses
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID       string `json:"id,omitempty"` // Provider-assigned ID, echoed back in tool results
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

// ChatResponse is the gateway's answer to one decision round.
// All fields use proper Go types — wire format conversion happens
// at the provider boundary (openai.go).
type ChatResponse struct {
	Model     string
	CreatedAt time.Time
	Message   Message

	// Token usage (provider-neutral)
	InputTokens  int
	OutputTokens int
}

// HasToolCalls reports whether the model requested tool execution.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.Message.ToolCalls) > 0
}
