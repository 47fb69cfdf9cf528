package agents

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ossy/internal/adapters/ai"
	"ossy/internal/domain/strategy"
	"ossy/internal/domain/token"
	"ossy/internal/events"
	"ossy/internal/tools"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
	"ossy/pkg/templates"
)

// scriptedProvider replays responses in order and records every request
type scriptedProvider struct {
	mu        sync.Mutex
	responses []*ai.ChatResponse
	errs      []error
	requests  []ai.ChatRequest
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "gemini-2.0-flash" }

func (p *scriptedProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return &ai.ChatResponse{}, nil
}

func toolCallResponse(args string) *ai.ChatResponse {
	return &ai.ChatResponse{Choices: []ai.Choice{{
		Message: ai.Message{
			Role: ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: ai.FunctionCall{Name: tools.FilterTokensName, Arguments: args},
			}},
		},
		FinishReason: ai.FinishReasonToolCalls,
	}}}
}

func textResponse(text string) *ai.ChatResponse {
	return &ai.ChatResponse{Choices: []ai.Choice{{
		Message:      ai.Message{Role: ai.RoleAssistant, Content: text},
		FinishReason: ai.FinishReasonStop,
	}}}
}

type fakeFilter struct {
	tokens []token.FilteredToken
	err    error
	got    []token.FilterCriteria
}

func (f *fakeFilter) FilterTokens(_ context.Context, c token.FilterCriteria) ([]token.FilteredToken, error) {
	f.got = append(f.got, c)
	return f.tokens, f.err
}

type capturePublisher struct {
	events []*events.ScreeningCompleted
}

func (c *capturePublisher) PublishScreeningCompleted(_ context.Context, e *events.ScreeningCompleted) error {
	c.events = append(c.events, e)
	return nil
}

func sampleTokens() []token.FilteredToken {
	return []token.FilteredToken{
		{Name: "Ossy", Symbol: "OSY", Chain: "solana", MarketCap: "$2,000,000", MarketCapRaw: 2e6, Volume24h: "$900,000", Volume24hRaw: 9e5},
		{Name: "Bonk", Symbol: "BONK", Chain: "solana", MarketCap: "$1,000,000", MarketCapRaw: 1e6, Volume24h: "$500,000", Volume24hRaw: 5e5},
	}
}

func newLLMOrchestrator(provider *scriptedProvider, filter *fakeFilter, opts ...Option) *Orchestrator {
	registry := tools.NewRegistry(tools.NewFilterTokensTool(filter))
	planner := NewToolCallingPlanner(provider, registry.Definitions(), WithSampling(0.2, 1024))
	return NewOrchestrator(planner, registry, opts...)
}

func TestOrchestrator_ToolCallingRun(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse(`{ "chain": "solana", "maxAgeDays": 7 }`),
		textResponse("Top 3 candidates: OSY, BONK."),
	}}
	filter := &fakeFilter{tokens: sampleTokens()}
	publisher := &capturePublisher{}
	orchestrator := newLLMOrchestrator(provider, filter, WithPublisher(publisher))

	res, err := orchestrator.RunStrategy(context.Background(), "aggressive")
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, "Top 3 candidates: OSY, BONK.", res.Text)
	assert.True(t, res.ToolInvoked)
	require.Len(t, res.Tokens, 2)
	assert.Equal(t, "OSY", res.Tokens[0].Symbol)
	require.NotNil(t, res.Criteria)
	assert.Equal(t, "solana", res.Criteria.ChainFilter())
	assert.Equal(t, OutcomeTokens, res.Outcome)
	assert.NotEmpty(t, res.RunID)

	assert.Equal(t, []string{
		"Initializing Agent...",
		"Reasoning with gemini-2.0-flash...",
		`Agent invoking tool: filterTokens({"chain":"solana","maxAgeDays":7})`,
		"Tool execution complete. Found 2 tokens. Synthesizing response...",
	}, res.Logs())

	require.Len(t, filter.got, 1, "tool runs exactly once")
	assert.Equal(t, 7.0, *filter.got[0].MaxAgeDays)

	require.Len(t, provider.requests, 2)
	first := provider.requests[0]
	require.Len(t, first.Messages, 2)
	assert.Equal(t, ai.RoleSystem, first.Messages[0].Role)
	assert.Contains(t, first.Messages[0].Content, "You are OSSY")
	assert.Contains(t, first.Messages[1].Content, "I want to execute the Aggressive strategy.")
	require.Len(t, first.Tools, 1)
	assert.Equal(t, tools.FilterTokensName, first.Tools[0].Function.Name)
	assert.Equal(t, 0.2, first.Temperature)
	assert.Equal(t, 1024, first.MaxTokens)

	second := provider.requests[1]
	assert.Empty(t, second.Tools, "the summary turn offers no tools")
	require.Len(t, second.Messages, 4)
	assistant := second.Messages[2]
	assert.Equal(t, ai.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	toolMsg := second.Messages[3]
	assert.Equal(t, ai.RoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, tools.FilterTokensName, toolMsg.Name)
	assert.Contains(t, toolMsg.Content, `"symbol":"OSY"`)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, res.RunID, publisher.events[0].RunID)
	assert.Equal(t, OutcomeTokens, publisher.events[0].Outcome)
	assert.Equal(t, []string{"OSY", "BONK"}, publisher.events[0].Symbols)
}

func TestOrchestrator_ModelDeclines(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{textResponse("I only screen tokens.")}}
	filter := &fakeFilter{}

	res := newLLMOrchestrator(provider, filter).Run(context.Background(), "What is the weather?")

	assert.Equal(t, "I only screen tokens.", res.Text)
	assert.False(t, res.ToolInvoked)
	assert.Nil(t, res.Tokens)
	assert.Equal(t, OutcomeDeclined, res.Outcome)
	assert.Empty(t, filter.got)
	assert.Len(t, provider.requests, 1)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"tokens"`)
}

func TestOrchestrator_DeclineWithoutText(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{textResponse("")}}
	res := newLLMOrchestrator(provider, &fakeFilter{}).Run(context.Background(), "hello")
	assert.Equal(t, TextCouldNotProcess, res.Text)
}

func TestOrchestrator_UnknownToolIsDecline(t *testing.T) {
	resp := toolCallResponse(`{}`)
	resp.Choices[0].Message.ToolCalls[0].Function.Name = "buyToken"
	resp.Choices[0].Message.Content = "Let me buy that."
	provider := &scriptedProvider{responses: []*ai.ChatResponse{resp}}
	filter := &fakeFilter{}

	res := newLLMOrchestrator(provider, filter).Run(context.Background(), "buy")
	assert.Equal(t, "Let me buy that.", res.Text)
	assert.Equal(t, OutcomeDeclined, res.Outcome)
	assert.Empty(t, filter.got)
}

func TestOrchestrator_EmptyResult(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse(`{"minLiquidity":1e12}`),
		textResponse(""),
	}}

	res := newLLMOrchestrator(provider, &fakeFilter{}).Run(context.Background(), "Find whales")

	assert.Equal(t, TextAnalysisComplete, res.Text)
	assert.True(t, res.ToolInvoked)
	assert.Empty(t, res.Tokens)
	assert.Equal(t, OutcomeNoTokens, res.Outcome)
	assert.Contains(t, res.Logs(), "Tool execution complete. Found 0 tokens. Synthesizing response...")

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tokens":[]`)
}

func TestOrchestrator_PipelineFailureStillSummarizes(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse(`{}`),
		textResponse("The screen failed, please retry."),
	}}
	filter := &fakeFilter{err: errors.ErrDataSourceUnavailable}

	res := newLLMOrchestrator(provider, filter).Run(context.Background(), "screen")

	assert.Equal(t, "The screen failed, please retry.", res.Text)
	assert.True(t, res.ToolInvoked)
	assert.Empty(t, res.Tokens)
	require.Len(t, provider.requests, 2)
	assert.JSONEq(t, `{"error":"`+tools.FilterErrorMessage+`"}`, provider.requests[1].Messages[3].Content)
}

func TestOrchestrator_MalformedToolResult(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{
		toolCallResponse(`{}`),
		textResponse("Done."),
	}}
	broken := tools.New(tools.FilterTokensName, "", nil, func(context.Context, string) (string, error) {
		return "not json at all", nil
	})
	registry := tools.NewRegistry(broken)
	orchestrator := NewOrchestrator(NewToolCallingPlanner(provider, registry.Definitions()), registry)

	res := orchestrator.Run(context.Background(), "screen")

	assert.Equal(t, "Done.", res.Text)
	assert.True(t, res.ToolInvoked)
	assert.Empty(t, res.Tokens)
	assert.NoError(t, res.Err)
}

func TestOrchestrator_ModelFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		text    string
		outcome string
	}{
		{"model unavailable", errors.Wrap(errors.ErrModelUnavailable, "gemini API error (404)"), TextModelUnavailable, OutcomeUnavailable},
		{"other failure", errors.Wrap(errors.ErrExternal, "gemini API error (400)"), TextAgentError, OutcomeError},
		{"rate limited", &ai.RateLimitError{Provider: ai.ProviderNameGemini, Err: context.DeadlineExceeded}, TextAgentError, OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{errs: []error{tt.err}}
			publisher := &capturePublisher{}

			res := newLLMOrchestrator(provider, &fakeFilter{}, WithPublisher(publisher)).Run(context.Background(), "screen")

			assert.Equal(t, tt.text, res.Text)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Error(t, res.Err)
			assert.False(t, res.ToolInvoked)
			require.Len(t, publisher.events, 1)
			assert.Equal(t, tt.outcome, publisher.events[0].Outcome)
		})
	}
}

func TestOrchestrator_SummaryFailureDropsTokens(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*ai.ChatResponse{toolCallResponse(`{}`)},
		errs:      []error{nil, errors.Wrap(errors.ErrModelUnavailable, "503")},
	}
	publisher := &capturePublisher{}

	res := newLLMOrchestrator(provider, &fakeFilter{tokens: sampleTokens()}, WithPublisher(publisher)).Run(context.Background(), "screen")

	assert.Equal(t, TextModelUnavailable, res.Text)
	assert.Equal(t, OutcomeUnavailable, res.Outcome)
	assert.False(t, res.ToolInvoked)
	assert.Empty(t, res.Tokens)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.NotContains(t, body, "tokens")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, OutcomeUnavailable, publisher.events[0].Outcome)
}

func TestOrchestrator_FailureLogsRunIDOnce(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	provider := &scriptedProvider{errs: []error{errors.Wrap(errors.ErrModelUnavailable, "404")}}

	res := newLLMOrchestrator(provider, &fakeFilter{}, WithLogger(logger.New(zap.New(core)))).Run(context.Background(), "screen")

	entries := logs.All()
	require.Len(t, entries, 1)

	var runIDs []string
	for _, f := range entries[0].Context {
		if f.Key == "run_id" {
			runIDs = append(runIDs, f.String)
		}
	}
	assert.Equal(t, []string{res.RunID}, runIDs)
}

func TestOrchestrator_NoCandidates(t *testing.T) {
	provider := &scriptedProvider{responses: []*ai.ChatResponse{{}}}

	res := newLLMOrchestrator(provider, &fakeFilter{}).Run(context.Background(), "screen")

	assert.Equal(t, TextNoResponse, res.Text)
	assert.Equal(t, OutcomeNoResponse, res.Outcome)
}

func TestOrchestrator_EmptyPrompt(t *testing.T) {
	provider := &scriptedProvider{}
	res := newLLMOrchestrator(provider, &fakeFilter{}).Run(context.Background(), "   ")

	assert.Equal(t, TextCouldNotProcess, res.Text)
	assert.Empty(t, provider.requests)
}

func TestOrchestrator_StaticPlanner(t *testing.T) {
	filter := &fakeFilter{tokens: sampleTokens()}
	registry := tools.NewRegistry(tools.NewFilterTokensTool(filter))
	orchestrator := NewOrchestrator(NewStaticPlanner(nil), registry)

	res, err := orchestrator.RunStrategy(context.Background(), "Growth")
	require.NoError(t, err)

	growth, err := strategy.Lookup("growth")
	require.NoError(t, err)
	require.Len(t, filter.got, 1)
	assert.Equal(t, *growth.Criteria.MinMarketCap, *filter.got[0].MinMarketCap)
	assert.Equal(t, *growth.Criteria.MaxMarketCap, *filter.got[0].MaxMarketCap)

	assert.Contains(t, res.Text, "Growth screen complete. 2 tokens passed the filters")
	assert.Contains(t, res.Text, "1. Ossy (OSY) on solana")
	assert.Equal(t, PlannerNameStatic, res.Planner)
	assert.Equal(t, "Reasoning with strategy catalog...", res.Logs()[1])
}

func TestOrchestrator_StaticPlannerNoMatches(t *testing.T) {
	registry := tools.NewRegistry(tools.NewFilterTokensTool(&fakeFilter{}))
	res, err := NewOrchestrator(NewStaticPlanner(nil), registry).RunStrategy(context.Background(), "inflation_fighting")
	require.NoError(t, err)

	assert.Contains(t, res.Text, "No tokens matched the filters")
	assert.Contains(t, res.Text, "relaxing the constraints")
	assert.True(t, res.ToolInvoked)
}

func TestOrchestrator_StaticPlannerToolError(t *testing.T) {
	registry := tools.NewRegistry(tools.NewFilterTokensTool(&fakeFilter{err: errors.ErrDataSourceUnavailable}))
	res, err := NewOrchestrator(NewStaticPlanner(nil), registry).RunStrategy(context.Background(), "aggressive")
	require.NoError(t, err)

	assert.Equal(t, tools.FilterErrorMessage, res.Text)
}

func TestOrchestrator_StaticPlannerFreeForm(t *testing.T) {
	registry := tools.NewRegistry(tools.NewFilterTokensTool(&fakeFilter{}))
	res := NewOrchestrator(NewStaticPlanner(nil), registry).Run(context.Background(), "find me a moonshot")

	assert.Contains(t, res.Text, "Aggressive, Growth, Inflation Fighting")
	assert.Equal(t, OutcomeDeclined, res.Outcome)
}

func TestRunStrategy_Unknown(t *testing.T) {
	registry := tools.NewRegistry(tools.NewFilterTokensTool(&fakeFilter{}))
	_, err := NewOrchestrator(NewStaticPlanner(nil), registry).RunStrategy(context.Background(), "yolo")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestBuildPrompt(t *testing.T) {
	s, err := strategy.Lookup("aggressive")
	require.NoError(t, err)

	prompt, err := BuildPrompt(templates.Get(), s)
	require.NoError(t, err)
	assert.Equal(t,
		"I want to execute the Aggressive strategy. Look for tokens with low market cap (<$5M), high volume relative to liquidity, and very young age (<7 days). Use the filterTokens tool to find the best assets right now.",
		prompt,
	)
}
