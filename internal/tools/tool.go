package tools

import (
	"context"

	"ossy/pkg/errors"
)

// Schema is a JSON schema object describing a tool's arguments
type Schema map[string]any

// Tool represents a callable capability exposed to agents. Arguments arrive
// as the raw JSON the model produced and the result goes back to the model
// as text, so domain failures are reported inside the result string. The
// error return is reserved for wiring faults.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary.
	Description() string
	// Parameters returns the JSON schema of the arguments.
	Parameters() Schema
	// Call executes the tool with JSON arguments and returns its text result.
	Call(ctx context.Context, args string) (string, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args string) (string, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	parameters  Schema
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, parameters Schema, handler HandlerFunc) Tool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the argument schema.
func (t *FunctionTool) Parameters() Schema { return t.parameters }

// Call runs the underlying handler.
func (t *FunctionTool) Call(ctx context.Context, args string) (string, error) {
	if t.handler == nil {
		return "", errors.Wrapf(errors.ErrInternal, "tool %s handler is not defined", t.name)
	}

	return t.handler(ctx, args)
}
