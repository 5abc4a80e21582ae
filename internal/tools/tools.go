// Package tools defines the closed set of tools available to the agent.
package tools

import (
	"context"
	"fmt"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds the fixed tool set. Dispatch is closed: the three
// builtin tools are the only members, and execution of any other name
// is an explicit error rather than a silent fallthrough.
type Registry struct {
	tools map[string]*Tool
	order []string // registration order, for stable List output
}

// NewRegistry creates the registry with the builtin tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	r.register(textProcessorTool())
	r.register(calculatorTool())
	r.register(weatherMockTool())
	return r
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Get retrieves a tool by name, or nil if unknown.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List returns all tools in the function-calling format the gateway expects.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, name := range r.order {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name with given arguments. Unknown names are
// rejected; user-input problems inside a tool (bad expression, unknown
// operation) come back as descriptive result text, never as errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Handler(ctx, args)
}
