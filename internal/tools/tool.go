// Package tools implements the function-calling tools exposed to the
// LLM and the registry that dispatches tool calls by name.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"github.com/lecternhq/lectern/internal/models"
)

// Output is the result of one tool execution. Text is handed back to the
// model; Sources carry the provenance of that text for the caller.
// Failures are reported as descriptive Text, never as an error, so the
// model can react to them.
type Output struct {
	Text    string
	Sources []models.Source
}

// Tool is a single function the model may call.
type Tool interface {
	// Definition describes the tool for the model's tool schema.
	Definition() llms.FunctionDefinition

	// Execute runs the tool with the model-supplied arguments.
	Execute(ctx context.Context, args json.RawMessage) Output
}

// Registry holds the available tools and dispatches calls by name.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

// NewRegistry creates a registry with the given tools. Later tools with
// a duplicate name shadow earlier ones.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{index: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools = append(r.tools, t)
		r.index[t.Definition().Name] = t
	}
	return r
}

// Definitions returns the tool schemas in registration order, ready to
// pass to a langchaingo call via llms.WithTools.
func (r *Registry) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		def := t.Definition()
		defs = append(defs, llms.Tool{
			Type:     "function",
			Function: &def,
		})
	}
	return defs
}

// Execute dispatches a tool call by name. Unknown tools and panicking
// tools produce descriptive Text instead of failing the request.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (out Output) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool panicked", "tool", name, "panic", rec)
			out = Output{Text: fmt.Sprintf("Tool '%s' failed: %v", name, rec)}
		}
	}()

	tool, ok := r.index[name]
	if !ok {
		return Output{Text: fmt.Sprintf("Tool '%s' not found", name)}
	}
	return tool.Execute(ctx, args)
}
