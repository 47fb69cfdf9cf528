package tools

import (
	"context"
	"encoding/json"
	"strings"

	"ossy/internal/domain/token"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

const (
	// FilterTokensName is the tool name the model calls
	FilterTokensName = "filterTokens"

	filterTokensDescription = "Filter cryptocurrency tokens from DexScreener based on financial criteria like volume, liquidity, market cap, and age."

	// FilterErrorMessage is returned to the model when screening fails
	FilterErrorMessage = "Error filtering tokens. The DexScreener API might be rate-limiting requests."
)

// TokenFilter is the screening pipeline the tool delegates to
type TokenFilter interface {
	FilterTokens(ctx context.Context, criteria token.FilterCriteria) ([]token.FilteredToken, error)
}

// FilterTokensTool exposes the screening pipeline to the agent
type FilterTokensTool struct {
	filter TokenFilter
	log    *logger.Logger
}

var _ Tool = (*FilterTokensTool)(nil)

// NewFilterTokensTool creates the filterTokens tool
func NewFilterTokensTool(filter TokenFilter) *FilterTokensTool {
	return &FilterTokensTool{
		filter: filter,
		log:    logger.Get().With("component", "tool", "tool", FilterTokensName),
	}
}

func (t *FilterTokensTool) Name() string { return FilterTokensName }

func (t *FilterTokensTool) Description() string { return filterTokensDescription }

// Parameters mirrors token.FilterCriteria. No field is required.
func (t *FilterTokensTool) Parameters() Schema {
	number := func(desc string) map[string]any {
		return map[string]any{"type": "number", "description": desc}
	}
	return Schema{
		"type": "object",
		"properties": map[string]any{
			"chain": map[string]any{
				"type":        "string",
				"description": `Filter tokens by blockchain (e.g., "solana", "ethereum", "bsc")`,
			},
			"minVolume24h": number("Minimum 24-hour trading volume in USD"),
			"minLiquidity": number("Minimum liquidity in USD"),
			"minMarketCap": number("Minimum market capitalization in USD"),
			"maxMarketCap": number("Maximum market capitalization in USD"),
			"maxAgeDays":   number("Maximum age of the token pair in days"),
		},
	}
}

// Call decodes the criteria, runs the pipeline and returns the token list as
// a JSON array. Invalid arguments and pipeline failures come back as a JSON
// {"error": "..."} object.
func (t *FilterTokensTool) Call(ctx context.Context, args string) (string, error) {
	if t.filter == nil {
		return "", errors.Wrap(errors.ErrInternal, "filterTokens has no token filter")
	}

	criteria, err := DecodeCriteria(args)
	if err != nil {
		t.log.Warnw("Rejected tool arguments", "args", args, "error", err)
		return errorResult("Invalid filter arguments: " + err.Error()), nil
	}

	tokens, err := t.filter.FilterTokens(ctx, criteria)
	if err != nil {
		t.log.ErrorWithContext(ctx, errors.Wrap(err, "filter tokens"), map[string]string{"tool": FilterTokensName})
		return errorResult(FilterErrorMessage), nil
	}
	if tokens == nil {
		tokens = []token.FilteredToken{}
	}

	out, err := json.Marshal(tokens)
	if err != nil {
		return "", errors.Wrap(err, "encode tokens")
	}
	return string(out), nil
}

// DecodeCriteria parses and validates tool arguments. Empty input means no constraints.
func DecodeCriteria(args string) (token.FilterCriteria, error) {
	var criteria token.FilterCriteria

	args = strings.TrimSpace(args)
	if args == "" || args == "null" {
		return criteria, nil
	}

	if err := json.Unmarshal([]byte(args), &criteria); err != nil {
		return token.FilterCriteria{}, errors.Wrapf(errors.ErrInvalidInput, "decode criteria: %v", err)
	}
	if err := criteria.Validate(); err != nil {
		return token.FilterCriteria{}, err
	}
	return criteria, nil
}

// EncodeCriteria renders criteria as tool arguments
func EncodeCriteria(criteria token.FilterCriteria) string {
	out, err := json.Marshal(criteria)
	if err != nil {
		return "{}"
	}
	return string(out)
}

type errorPayload struct {
	Error string `json:"error"`
}

func errorResult(msg string) string {
	out, _ := json.Marshal(errorPayload{Error: msg})
	return string(out)
}

// DecodeResult parses a filterTokens result. A {"error": ...} object yields
// ErrExternal carrying the message; anything that is not a token array
// yields ErrMalformedToolResult.
func DecodeResult(result string) ([]token.FilteredToken, error) {
	trimmed := strings.TrimSpace(result)

	if strings.HasPrefix(trimmed, "{") {
		var payload errorPayload
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Error != "" {
			return nil, errors.Wrap(errors.ErrExternal, payload.Error)
		}
	}

	if !strings.HasPrefix(trimmed, "[") {
		return nil, errors.Wrap(errors.ErrMalformedToolResult, "expected a JSON array")
	}

	var tokens []token.FilteredToken
	if err := json.Unmarshal([]byte(trimmed), &tokens); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedToolResult, "%v", err)
	}
	return tokens, nil
}
