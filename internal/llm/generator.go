package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/lecternhq/lectern/internal/metrics"
	"github.com/lecternhq/lectern/internal/models"
	"github.com/lecternhq/lectern/internal/tools"
)

const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for course information.

Available Tools:
- search_course_content: Search within course materials for specific content
- get_course_outline: Get course title, course link, and complete lesson list with lesson numbers and titles

Tool Usage:
- You get ONE round of tool calls per query; after the tools return, answer from their results
- Course-specific content questions: use search_course_content
- Course outline/structure questions: use get_course_outline
- General knowledge questions: answer from existing knowledge without tools
- If the tools return no relevant information, state this clearly

All responses must be:
1. Brief, concise and focused - get to the point quickly
2. Educational - maintain instructional value
3. Clear - use accessible language
4. Example-supported - include relevant examples when they aid understanding
Provide only the direct answer to what was asked, with no meta-commentary about tools or reasoning.`

// generation temperature and output cap, tuned for short factual answers.
const (
	genTemperature = 0.0
	genMaxTokens   = 800
)

// phase names the two steps of the tool protocol.
type phase string

const (
	phaseToolDecision phase = "tool_decision" // tools offered, model may call them
	phaseSynthesis    phase = "synthesis"     // tool results in context, no tools offered
)

// Result is a generated answer with the sources its tool calls touched.
type Result struct {
	Answer  string
	Sources []models.Source
}

// Generator produces answers through a two-phase tool protocol: one call
// with tools offered, then, if the model called any, one synthesis call
// over the tool results. API failures degrade to an apologetic answer
// rather than an error so the chat surface always has something to show.
type Generator struct {
	model     llms.Model
	modelName string
	registry  *tools.Registry
	collector *metrics.Collector
}

// NewGenerator creates a generator over the given model and tool registry.
func NewGenerator(model *Model, registry *tools.Registry, collector *metrics.Collector) *Generator {
	return &Generator{
		model:     model.LLM(),
		modelName: model.Name(),
		registry:  registry,
		collector: collector,
	}
}

// Generate answers a query, optionally conditioned on prior conversation
// history. The returned sources reflect the tool calls of this request
// only.
func (g *Generator) Generate(ctx context.Context, query, history string) Result {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}

	choice, err := g.call(ctx, phaseToolDecision, messages, g.registry.Definitions())
	if err != nil {
		return Result{Answer: fallbackAnswer("processing your request", err)}
	}
	if len(choice.ToolCalls) == 0 {
		return Result{Answer: choice.Content}
	}

	messages, sources := g.runTools(ctx, messages, choice)

	choice, err = g.call(ctx, phaseSynthesis, messages, nil)
	if err != nil {
		return Result{Answer: fallbackAnswer("providing my final response", err), Sources: sources}
	}
	return Result{Answer: choice.Content, Sources: sources}
}

func (g *Generator) call(ctx context.Context, p phase, messages []llms.MessageContent, defs []llms.Tool) (*llms.ContentChoice, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(genTemperature),
		llms.WithMaxTokens(genMaxTokens),
	}
	if len(defs) > 0 {
		opts = append(opts, llms.WithTools(defs))
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	g.collector.Record(metrics.OpLLMCall, time.Since(start))

	if err != nil {
		slog.Error("llm call failed", "model", g.modelName, "phase", string(p), "error", err)
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0], nil
}

// runTools executes the model's tool calls, appends the assistant turn
// and tool results to the transcript, and collects the sources touched.
func (g *Generator) runTools(ctx context.Context, messages []llms.MessageContent, choice *llms.ContentChoice) ([]llms.MessageContent, []models.Source) {
	assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if choice.Content != "" {
		assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
	}
	for _, tc := range choice.ToolCalls {
		assistant.Parts = append(assistant.Parts, tc)
	}
	messages = append(messages, assistant)

	var sources []models.Source
	for _, tc := range choice.ToolCalls {
		name := tc.FunctionCall.Name
		slog.Debug("executing tool", "tool", name, "args", tc.FunctionCall.Arguments)

		out := g.registry.Execute(ctx, name, json.RawMessage(tc.FunctionCall.Arguments))
		sources = append(sources, out.Sources...)

		messages = append(messages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.ToolCallResponse{
				ToolCallID: tc.ID,
				Name:       name,
				Content:    out.Text,
			}},
		})
	}
	return messages, sources
}

func fallbackAnswer(stage string, err error) string {
	return fmt.Sprintf("I apologize, but I encountered a technical issue while %s: %v", stage, err)
}
