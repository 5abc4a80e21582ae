package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskpilot-ai/taskpilot/internal/events"
	"github.com/taskpilot-ai/taskpilot/internal/llm"
	"github.com/taskpilot-ai/taskpilot/internal/tools"
)

const systemPrompt = `You are a helpful task-processing assistant. You have access to these tools:

- text_processor: process text (uppercase, lowercase, word_count, char_count, reverse, title_case)
- calculator: evaluate arithmetic expressions (+, -, *, /, ** for power, % for modulo, parentheses)
- weather_mock: look up weather information for a city

Use tools when the task calls for them. When you have everything you need, answer the user directly and concisely.`

// toolResultPreviewLen caps how much of a tool result appears in the
// execution trace.
const toolResultPreviewLen = 100

// Runner executes tasks against the gateway and the tool registry. All
// collaborators are injected; Runner holds no global state.
type Runner struct {
	llm           llm.Client
	tools         *tools.Registry
	maxIterations int
	bus           *events.Bus
	logger        *slog.Logger
}

// NewRunner creates a runner. maxIterations caps the number of
// decide/execute rounds per run; values below 1 fall back to 1. bus may
// be nil.
func NewRunner(client llm.Client, registry *tools.Registry, maxIterations int, bus *events.Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Runner{
		llm:           client,
		tools:         registry,
		maxIterations: maxIterations,
		bus:           bus,
		logger:        logger.With("component", "agent"),
	}
}

// Run processes one task to completion. runID scopes the gateway
// conversation; emit (optional) receives progress events as the run
// advances. The returned Result holds the final answer, the deduplicated
// tool list and the full execution trace.
func (r *Runner) Run(ctx context.Context, task, runID string, emit EmitFunc) (*Result, error) {
	start := time.Now()

	r.bus.Publish(events.Event{
		Timestamp: start,
		Source:    events.SourceAgent,
		Kind:      events.KindTaskStart,
		Data:      map[string]any{"run_id": runID, "task_len": len(task)},
	})

	res := &Result{ToolsUsed: []string{}}
	toolsSeen := make(map[string]bool)

	addStep := func(description string) {
		step := ExecutionStep{
			StepNumber:  len(res.Steps) + 1,
			Description: description,
			Timestamp:   stepTimestamp(),
		}
		res.Steps = append(res.Steps, step)
		if emit != nil {
			emit("step", step)
		}
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: task},
	}

	for iteration := 1; iteration <= r.maxIterations; iteration++ {
		// The trace quotes whatever the model is about to consider,
		// which after the first round is the latest tool result.
		addStep(fmt.Sprintf("Received input: \"%s\"", messages[len(messages)-1].Content))

		r.bus.Publish(events.Event{
			Timestamp: time.Now(),
			Source:    events.SourceAgent,
			Kind:      events.KindLLMCall,
			Data:      map[string]any{"run_id": runID, "iteration": iteration},
		})

		resp, err := r.llm.Chat(ctx, runID, messages, r.tools.List())
		if err != nil {
			r.publishError(runID, err)
			return nil, fmt.Errorf("gateway call failed: %w", err)
		}

		r.bus.Publish(events.Event{
			Timestamp: time.Now(),
			Source:    events.SourceAgent,
			Kind:      events.KindLLMResponse,
			Data: map[string]any{
				"run_id":     runID,
				"iteration":  iteration,
				"tool_calls": len(resp.Message.ToolCalls),
				"tokens_in":  resp.InputTokens,
				"tokens_out": resp.OutputTokens,
			},
		})

		if !resp.HasToolCalls() {
			addStep("Returning result to user")
			res.FinalOutput = resp.Message.Content
			if emit != nil {
				emit("final_output", res.FinalOutput)
			}
			r.bus.Publish(events.Event{
				Timestamp: time.Now(),
				Source:    events.SourceAgent,
				Kind:      events.KindTaskComplete,
				Data: map[string]any{
					"run_id":     runID,
					"iterations": iteration,
					"tools_used": len(res.ToolsUsed),
					"elapsed_ms": time.Since(start).Milliseconds(),
				},
			})
			r.logger.Info("task completed",
				"run_id", runID,
				"iterations", iteration,
				"steps", len(res.Steps),
				"tools_used", res.ToolsUsed,
			)
			return res, nil
		}

		names := make([]string, len(resp.Message.ToolCalls))
		for i, tc := range resp.Message.ToolCalls {
			names[i] = tc.Function.Name
		}
		addStep("Selected tool(s): " + strings.Join(names, ", "))

		messages = append(messages, resp.Message)

		for _, tc := range resp.Message.ToolCalls {
			name := tc.Function.Name

			r.bus.Publish(events.Event{
				Timestamp: time.Now(),
				Source:    events.SourceAgent,
				Kind:      events.KindToolCall,
				Data:      map[string]any{"run_id": runID, "tool": name},
			})

			toolStart := time.Now()
			output, err := r.tools.Execute(ctx, name, tc.Function.Arguments)

			r.bus.Publish(events.Event{
				Timestamp: time.Now(),
				Source:    events.SourceAgent,
				Kind:      events.KindToolDone,
				Data: map[string]any{
					"run_id":      runID,
					"tool":        name,
					"ok":          err == nil,
					"duration_ms": time.Since(toolStart).Milliseconds(),
				},
			})

			if err != nil {
				r.publishError(runID, err)
				return nil, fmt.Errorf("tool %s: %w", name, err)
			}

			// Each tool name is announced once, on first use.
			if !toolsSeen[name] {
				toolsSeen[name] = true
				res.ToolsUsed = append(res.ToolsUsed, name)
				if emit != nil {
					emit("tool_used", name)
				}
			}

			addStep(fmt.Sprintf("Tool result from %s: %s", name, preview(output)))

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    output,
				ToolCallID: tc.ID,
				ToolName:   name,
			})
		}
	}

	err := fmt.Errorf("task did not complete within %d iterations", r.maxIterations)
	r.publishError(runID, err)
	return nil, err
}

func (r *Runner) publishError(runID string, err error) {
	r.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindTaskError,
		Data:      map[string]any{"run_id": runID, "error": err.Error()},
	})
}

// preview truncates a tool result for trace display.
func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= toolResultPreviewLen {
		return s
	}
	return string(runes[:toolResultPreviewLen]) + "..."
}
