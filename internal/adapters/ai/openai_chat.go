package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// OpenAIProvider implements ChatProvider over the OpenAI chat completions API.
// DeepSeek speaks the same protocol and is served by pointing BaseURL at it.
type OpenAIProvider struct {
	name    ProviderName
	client  openai.Client
	model   string
	limiter RateLimiter
	log     *logger.Logger
}

var _ ChatProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider for OpenAI or any compatible API.
func NewOpenAIProvider(name ProviderName, cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s API key not configured", name)
	}
	cfg = cfg.withDefaults(name)

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		name:    name,
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		limiter: cfg.Limiter,
		log:     logger.Get().With("component", "ai", "provider", name),
	}, nil
}

// Name returns provider name.
func (p *OpenAIProvider) Name() string { return p.name.String() }

// Model returns the configured model.
func (p *OpenAIProvider) Model() string { return p.model }

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	if err := p.limiter.Wait(ctx); err != nil {
		metrics.RecordLLMRateLimited(p.Name(), model)
		return nil, &RateLimitError{Provider: p.name, Limit: p.limiter.PerMinute(), Err: err}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Function.Name,
			Description: openai.String(tool.Function.Description),
			Parameters:  openai.FunctionParameters(tool.Function.Parameters),
		}))
	}

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = p.wrapError(err)
		metrics.RecordLLMCall(p.Name(), model, time.Since(start), 0, 0, err)
		p.log.Warnw("Chat completion failed", "model", model, "error", err)
		return nil, err
	}

	out := fromOpenAI(completion)
	metrics.RecordLLMCall(p.Name(), model, time.Since(start), out.Usage.PromptTokens, out.Usage.CompletionTokens, nil)
	p.log.Debugw("Chat completion complete",
		"model", model,
		"choices", len(out.Choices),
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return out, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}

			assistant := &openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: tc.Function.Arguments,
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}

	return out
}

func fromOpenAI(completion *openai.ChatCompletion) *ChatResponse {
	out := &ChatResponse{
		ID:    completion.ID,
		Model: completion.Model,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}

	for _, choice := range completion.Choices {
		msg := Message{
			Role:    RoleAssistant,
			Content: choice.Message.Content,
		}

		for _, tc := range choice.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		finishReason := FinishReasonStop
		switch choice.FinishReason {
		case "length":
			finishReason = FinishReasonLength
		case "tool_calls", "function_call":
			finishReason = FinishReasonToolCalls
		}
		if len(msg.ToolCalls) > 0 {
			finishReason = FinishReasonToolCalls
		}

		out.Choices = append(out.Choices, Choice{
			Index:        int(choice.Index),
			Message:      msg,
			FinishReason: finishReason,
		})
	}

	return out
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return newAPIError(p.name, apiErr.StatusCode, msg, err)
	}
	return transportError(p.name, err)
}
