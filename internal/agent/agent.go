// Package agent implements the task-processing loop: it drives the
// model through tool selection and execution until a final answer is
// produced, recording a human-readable execution trace along the way.
package agent

import (
	"time"
)

// ExecutionStep is one entry in a run's execution trace.
type ExecutionStep struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// Result is the outcome of a completed task run.
type Result struct {
	FinalOutput string          `json:"final_output"`
	ToolsUsed   []string        `json:"tools_used"`
	Steps       []ExecutionStep `json:"execution_steps"`
}

// EmitFunc receives progress events while a run is in flight. eventType
// is one of "step", "tool_used" or "final_output"; data is the payload
// for that event. A nil EmitFunc disables progress reporting.
type EmitFunc func(eventType string, data any)

func stepTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
