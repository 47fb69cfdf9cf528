package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// GeminiProvider implements ChatProvider over the Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	limiter RateLimiter
	log     *logger.Logger
}

var _ ChatProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key not configured")
	}
	cfg = cfg.withDefaults(ProviderNameGemini)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiProvider{
		client:  client,
		model:   cfg.Model,
		limiter: cfg.Limiter,
		log:     logger.Get().With("component", "ai", "provider", ProviderNameGemini),
	}, nil
}

// Name returns provider name.
func (p *GeminiProvider) Name() string { return ProviderNameGemini.String() }

// Model returns the configured model.
func (p *GeminiProvider) Model() string { return p.model }

// Chat sends a generateContent request. System messages become the system
// instruction, tool results become function response parts.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	if err := p.limiter.Wait(ctx); err != nil {
		metrics.RecordLLMRateLimited(p.Name(), model)
		return nil, &RateLimitError{Provider: ProviderNameGemini, Limit: p.limiter.PerMinute(), Err: err}
	}

	contents, system, err := toGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 tool.Function.Name,
				Description:          tool.Function.Description,
				ParametersJsonSchema: tool.Function.Parameters,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	start := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		err = geminiError(err)
		metrics.RecordLLMCall(p.Name(), model, time.Since(start), 0, 0, err)
		p.log.Warnw("Gemini call failed", "model", model, "error", err)
		return nil, err
	}

	out := fromGemini(resp, model)
	metrics.RecordLLMCall(p.Name(), model, time.Since(start), out.Usage.PromptTokens, out.Usage.CompletionTokens, nil)
	p.log.Debugw("Gemini call complete",
		"model", model,
		"choices", len(out.Choices),
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return out, nil
}

func toGeminiContents(messages []Message) ([]*genai.Content, *genai.Content, error) {
	var (
		contents []*genai.Content
		system   []string
	)

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)

		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))

		case RoleAssistant:
			parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				if strings.TrimSpace(tc.Function.Arguments) != "" {
					if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
						return nil, nil, errors.Wrapf(errors.ErrInvalidInput, "tool call %s arguments: %v", tc.Function.Name, err)
					}
				}
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Function.Name, args))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))

		case RoleTool:
			part := genai.NewPartFromFunctionResponse(msg.Name, map[string]any{"result": msg.Content})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))

		default:
			return nil, nil, errors.Wrapf(errors.ErrInvalidInput, "unsupported message role %q", msg.Role)
		}
	}

	var instruction *genai.Content
	if len(system) > 0 {
		instruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, instruction, nil
}

func fromGemini(resp *genai.GenerateContentResponse, model string) *ChatResponse {
	out := &ChatResponse{ID: resp.ResponseID, Model: model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}

	if usage := resp.UsageMetadata; usage != nil {
		out.Usage = Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}

	for i, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}

		msg := Message{Role: RoleAssistant}
		var text strings.Builder
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				if part.FunctionCall != nil {
					args, _ := json.Marshal(part.FunctionCall.Args)
					id := part.FunctionCall.ID
					if id == "" {
						id = fmt.Sprintf("call_%d_%d", i, len(msg.ToolCalls))
					}
					msg.ToolCalls = append(msg.ToolCalls, ToolCall{
						ID:       id,
						Type:     "function",
						Function: FunctionCall{Name: part.FunctionCall.Name, Arguments: string(args)},
					})
					continue
				}
				if part.Text != "" && !part.Thought {
					text.WriteString(part.Text)
				}
			}
		}
		msg.Content = text.String()

		finish := FinishReasonStop
		switch {
		case len(msg.ToolCalls) > 0:
			finish = FinishReasonToolCalls
		case candidate.FinishReason == genai.FinishReasonMaxTokens:
			finish = FinishReasonLength
		}

		out.Choices = append(out.Choices, Choice{Index: i, Message: msg, FinishReason: finish})
	}

	return out
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newAPIError(ProviderNameGemini, apiErr.Code, apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newAPIError(ProviderNameGemini, apiErrPtr.Code, apiErrPtr.Message, err)
	}
	return transportError(ProviderNameGemini, err)
}
