package agents

import (
	"context"
	"fmt"
	"strings"

	"ossy/internal/domain/strategy"
	"ossy/internal/tools"
	"ossy/pkg/errors"
	"ossy/pkg/templates"
)

const (
	// PlannerNameStatic identifies the catalog planner
	PlannerNameStatic = "static"

	staticModel = "strategy catalog"
)

// StaticPlanner uses the catalog's default criteria and a template summary,
// so screening works without any model key.
type StaticPlanner struct {
	templates *templates.Registry
}

// NewStaticPlanner creates the offline planner. A nil registry uses the embedded templates.
func NewStaticPlanner(r *templates.Registry) *StaticPlanner {
	if r == nil {
		r = templates.Get()
	}
	return &StaticPlanner{templates: r}
}

func (p *StaticPlanner) Name() string { return PlannerNameStatic }

func (p *StaticPlanner) Model() string { return staticModel }

// DecideCriteria picks the strategy named in the prompt. Prompts naming no
// catalog strategy are declined.
func (p *StaticPlanner) DecideCriteria(_ context.Context, prompt string) (*Decision, error) {
	s, ok := strategy.Match(prompt)
	if !ok {
		return &Decision{
			Reply: fmt.Sprintf("No language model is configured, so only the built-in strategies can run: %s.",
				strings.Join(strategy.Titles(), ", ")),
		}, nil
	}

	criteria := s.Criteria
	return &Decision{
		Invoke:    true,
		ToolName:  tools.FilterTokensName,
		Arguments: tools.EncodeCriteria(criteria),
		Criteria:  &criteria,
		Strategy:  s.Title,
	}, nil
}

// Summarize renders the summary template over the decoded tool result. A
// tool error is passed through as the summary.
func (p *StaticPlanner) Summarize(_ context.Context, _ string, decision *Decision, toolResult string) (string, error) {
	if decision == nil || decision.Criteria == nil {
		return "", errors.Wrap(errors.ErrInvalidInput, "summarize needs a tool decision")
	}

	tokens, err := tools.DecodeResult(toolResult)
	switch {
	case errors.Is(err, errors.ErrExternal):
		return tools.FilterErrorMessage, nil
	case err != nil:
		return "", err
	}

	return p.templates.Render(templates.StaticSummaryID, map[string]any{
		"Strategy": decision.Strategy,
		"Tokens":   tokens,
		"Criteria": decision.Criteria.String(),
	})
}
