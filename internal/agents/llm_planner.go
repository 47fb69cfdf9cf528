package agents

import (
	"context"
	"strings"

	"ossy/internal/adapters/ai"
	"ossy/internal/domain/strategy"
	"ossy/internal/tools"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
	"ossy/pkg/templates"
)

// PlannerNameLLM identifies the tool calling planner
const PlannerNameLLM = "llm"

// ToolCallingPlanner asks a chat model to pick the tool arguments and to
// summarize the tool result, the two-turn function calling exchange.
type ToolCallingPlanner struct {
	provider    ai.ChatProvider
	tools       []tools.Definition
	templates   *templates.Registry
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

// PlannerOption customizes a ToolCallingPlanner
type PlannerOption func(*ToolCallingPlanner)

// WithTemplates overrides the prompt templates
func WithTemplates(r *templates.Registry) PlannerOption {
	return func(p *ToolCallingPlanner) { p.templates = r }
}

// WithSampling sets temperature and the completion token cap
func WithSampling(temperature float64, maxTokens int) PlannerOption {
	return func(p *ToolCallingPlanner) {
		p.temperature = temperature
		p.maxTokens = maxTokens
	}
}

// NewToolCallingPlanner creates a planner over provider offering defs to the model
func NewToolCallingPlanner(provider ai.ChatProvider, defs []tools.Definition, opts ...PlannerOption) *ToolCallingPlanner {
	p := &ToolCallingPlanner{
		provider:  provider,
		tools:     defs,
		templates: templates.Get(),
		log:       logger.Get().With("component", "planner", "planner", PlannerNameLLM),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ToolCallingPlanner) Name() string { return PlannerNameLLM }

func (p *ToolCallingPlanner) Model() string { return p.provider.Model() }

// DecideCriteria sends the system instruction and the prompt with the tool
// declarations. A reply without a known tool call is a decline.
func (p *ToolCallingPlanner) DecideCriteria(ctx context.Context, prompt string) (*Decision, error) {
	system, err := p.systemInstruction()
	if err != nil {
		return nil, err
	}

	conversation := []ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: prompt},
	}

	defs := make([]ai.ToolDefinition, 0, len(p.tools))
	for _, d := range p.tools {
		defs = append(defs, ai.NewFunctionTool(d.Name, d.Description, d.Parameters))
	}

	resp, err := p.provider.Chat(ctx, ai.ChatRequest{
		Messages:    conversation,
		Tools:       defs,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, "decide criteria")
	}

	choice, ok := resp.First()
	if !ok {
		return nil, ErrNoResponse
	}

	decision := &Decision{Reply: strings.TrimSpace(choice.Message.Content)}
	if s, ok := strategy.Match(prompt); ok {
		decision.Strategy = s.Title
	}

	call, ok := p.knownCall(choice.Message.ToolCalls)
	if !ok {
		if len(choice.Message.ToolCalls) > 0 {
			p.log.Warnw("Model called an unknown tool", "tool", choice.Message.ToolCalls[0].Function.Name)
		}
		return decision, nil
	}

	decision.Invoke = true
	decision.ToolName = call.Function.Name
	decision.Arguments = call.Function.Arguments
	decision.callID = call.ID
	if criteria, err := tools.DecodeCriteria(call.Function.Arguments); err == nil {
		decision.Criteria = &criteria
	}

	// Echo only the call being answered, chat APIs require a result for every call
	assistant := choice.Message
	assistant.ToolCalls = []ai.ToolCall{call}
	decision.conversation = append(conversation, assistant)

	return decision, nil
}

// Summarize sends the tool result back without tool declarations, so the
// model has to answer in text.
func (p *ToolCallingPlanner) Summarize(ctx context.Context, _ string, decision *Decision, toolResult string) (string, error) {
	if decision == nil || !decision.Invoke || len(decision.conversation) == 0 {
		return "", errors.Wrap(errors.ErrInvalidInput, "summarize needs a tool decision")
	}

	messages := append([]ai.Message(nil), decision.conversation...)
	messages = append(messages, ai.Message{
		Role:       ai.RoleTool,
		Content:    toolResult,
		ToolCallID: decision.callID,
		Name:       decision.ToolName,
	})

	resp, err := p.provider.Chat(ctx, ai.ChatRequest{
		Messages:    messages,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, "summarize")
	}

	choice, ok := resp.First()
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(choice.Message.Content), nil
}

func (p *ToolCallingPlanner) knownCall(calls []ai.ToolCall) (ai.ToolCall, bool) {
	for _, call := range calls {
		for _, d := range p.tools {
			if call.Function.Name == d.Name {
				return call, true
			}
		}
	}
	return ai.ToolCall{}, false
}

func (p *ToolCallingPlanner) systemInstruction() (string, error) {
	toolName := tools.FilterTokensName
	if len(p.tools) > 0 {
		toolName = p.tools[0].Name
	}

	return p.templates.Render(templates.SystemInstructionID, map[string]any{
		"ToolName":   toolName,
		"Strategies": strategy.Titles(),
		"Guidance":   strategy.Guidance(),
	})
}
