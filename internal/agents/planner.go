package agents

import (
	"context"

	"ossy/internal/adapters/ai"
	"ossy/internal/domain/token"
	"ossy/pkg/errors"
)

// ErrNoResponse means the model answered with no candidates at all
var ErrNoResponse = errors.New("no response from model")

// Planner turns a strategy prompt into filter criteria and writes the final
// summary once the tool has run.
type Planner interface {
	// Name identifies the planner kind in metrics and events ("llm", "static").
	Name() string
	// Model is the model name shown in the run log.
	Model() string
	// DecideCriteria chooses the tool arguments, or declines with a reply.
	DecideCriteria(ctx context.Context, prompt string) (*Decision, error)
	// Summarize writes the answer for the tool result. An empty string is allowed.
	Summarize(ctx context.Context, prompt string, decision *Decision, toolResult string) (string, error)
}

// Decision is the planner's answer to a prompt
type Decision struct {
	// Invoke is false when the planner declined to call a tool
	Invoke bool
	// ToolName and Arguments are the call to make, Arguments is raw JSON
	ToolName  string
	Arguments string
	// Criteria is the decoded form of Arguments, nil when they do not decode
	Criteria *token.FilterCriteria
	// Reply is the planner's text when it declined
	Reply string
	// Strategy is the catalog title the decision was made for, if known
	Strategy string

	callID       string
	conversation []ai.Message
}
