package llm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/taskpilot-ai/taskpilot/internal/httpkit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient talks to an OpenAI-compatible chat-completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIClient creates a gateway client. baseURL may be empty for the
// official endpoint; model is used for every request.
func NewOpenAIClient(apiKey, baseURL, model string, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// Model responses can take significant time before sending headers
	// (long prompts, busy upstream). Use a custom transport with a
	// generous response header timeout.
	t := httpkit.NewTransport()
	t.ResponseHeaderTimeout = 120 * time.Second

	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		logger:  logger.With("provider", "openai"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(2*time.Minute),
			httpkit.WithTransport(t),
		),
	}
}

// OpenAI request/response wire types

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []wireMessage    `json:"messages"`
	Tools       []map[string]any `json:"tools,omitempty"`
	Temperature float64          `json:"temperature"`
	User        string           `json:"user,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // JSON-encoded argument object
	} `json:"function"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat sends one chat completion request and returns the unified response.
func (c *OpenAIClient) Chat(ctx context.Context, conversationID string, messages []Message, tools []map[string]any) (*ChatResponse, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    toWire(messages),
		Tools:       tools,
		Temperature: 0,
		User:        conversationID,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Log(ctx, LevelTrace, "chat request", "payload", string(jsonData))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 2048)
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}

	var wire chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(wire.Choices) == 0 {
		return nil, fmt.Errorf("gateway returned no choices")
	}

	choice := wire.Choices[0]
	msg, err := fromWire(choice.Message)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("chat completed",
		"model", wire.Model,
		"tool_calls", len(msg.ToolCalls),
		"input_tokens", wire.Usage.PromptTokens,
		"output_tokens", wire.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return &ChatResponse{
		Model:        wire.Model,
		CreatedAt:    time.Unix(wire.Created, 0),
		Message:      msg,
		InputTokens:  wire.Usage.PromptTokens,
		OutputTokens: wire.Usage.CompletionTokens,
	}, nil
}

// Ping checks if the provider is reachable and the credential is accepted.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}

// toWire converts unified messages to the chat-completions wire format.
// Tool call arguments travel as a JSON-encoded string on the wire.
func toWire(messages []Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Function.Name
			wtc.Function.Arguments = string(args)
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		out = append(out, wm)
	}
	return out
}

// fromWire converts a wire message back, decoding each tool call's
// argument string into a map at the provider boundary.
func fromWire(wm wireMessage) (Message, error) {
	msg := Message{
		Role:       wm.Role,
		Content:    wm.Content,
		ToolCallID: wm.ToolCallID,
	}
	for _, wtc := range wm.ToolCalls {
		tc := ToolCall{ID: wtc.ID}
		tc.Function.Name = wtc.Function.Name
		if wtc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(wtc.Function.Arguments), &tc.Function.Arguments); err != nil {
				return Message{}, fmt.Errorf("decode arguments for %s: %w", wtc.Function.Name, err)
			}
		}
		msg.ToolCalls = append(msg.ToolCalls, tc)
	}
	return msg, nil
}
