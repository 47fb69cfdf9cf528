package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"ossy/internal/adapters/ai"
	"ossy/internal/domain/strategy"
	"ossy/internal/domain/token"
	"ossy/internal/events"
	"ossy/internal/metrics"
	"ossy/internal/tools"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
	"ossy/pkg/templates"
)

const publishTimeout = 5 * time.Second

// Orchestrator runs one agent turn: plan the criteria, call the tool once,
// summarize. Failures become readable text on the Result.
type Orchestrator struct {
	planner   Planner
	tools     *tools.Registry
	publisher events.Publisher
	templates *templates.Registry
	timeout   time.Duration
	log       *logger.Logger
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithPublisher sets the event publisher
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithRunTimeout bounds a whole run including both model calls
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithLogger sets the orchestrator logger
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithPromptTemplates overrides the template registry used for strategy prompts
func WithPromptTemplates(r *templates.Registry) Option {
	return func(o *Orchestrator) { o.templates = r }
}

// NewOrchestrator creates an orchestrator over planner and the registered tools
func NewOrchestrator(planner Planner, registry *tools.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		planner:   planner,
		tools:     registry,
		publisher: events.NoopPublisher{},
		templates: templates.Get(),
		log:       logger.Get().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Planner returns the planner in use
func (o *Orchestrator) Planner() Planner {
	return o.planner
}

// RunStrategy runs the catalog strategy identified by id or title.
// Only an unknown strategy is returned as an error.
func (o *Orchestrator) RunStrategy(ctx context.Context, key string) (*Result, error) {
	s, err := strategy.Lookup(key)
	if err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(o.templates, s)
	if err != nil {
		return nil, err
	}

	return o.Run(ctx, prompt), nil
}

// BuildPrompt renders the run prompt for a catalog strategy
func BuildPrompt(r *templates.Registry, s strategy.Strategy) (string, error) {
	return r.Render(templates.StrategyPromptID, map[string]string{
		"Title":         s.Title,
		"PromptContext": s.PromptContext,
		"ToolName":      tools.FilterTokensName,
	})
}

// Run executes the agent for a free-form prompt. It never panics and never
// returns a failure to the caller; Result.Text always holds something to show.
func (o *Orchestrator) Run(ctx context.Context, prompt string) *Result {
	start := time.Now()
	res := &Result{
		RunID:   uuid.NewString(),
		Planner: o.planner.Name(),
	}
	res.log = o.log.With("run_id", res.RunID)

	ctx = errors.WithRunID(ctx, res.RunID)
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			o.fail(ctx, res, errors.Wrapf(errors.ErrInternal, "panic: %v", r))
		}
		duration := time.Since(start)
		metrics.RecordAgentRun(res.Planner, res.Outcome, duration)
		o.publish(ctx, res, prompt, duration)
	}()

	res.logf("Initializing Agent...")

	if strings.TrimSpace(prompt) == "" {
		res.Text = TextCouldNotProcess
		res.Outcome = OutcomeDeclined
		return res
	}

	res.logf("Reasoning with %s...", o.planner.Model())

	decision, err := o.planner.DecideCriteria(ctx, prompt)
	if err != nil {
		o.fail(ctx, res, err)
		return res
	}

	if !decision.Invoke {
		res.Text = decision.Reply
		if res.Text == "" {
			res.Text = TextCouldNotProcess
		}
		res.Outcome = OutcomeDeclined
		return res
	}

	tool, err := o.tools.Lookup(decision.ToolName)
	if err != nil {
		o.fail(ctx, res, err)
		return res
	}

	res.Criteria = decision.Criteria
	res.logf("Agent invoking tool: %s(%s)", tool.Name(), compactJSON(decision.Arguments))

	toolResult, err := tool.Call(ctx, decision.Arguments)
	if err != nil {
		o.fail(ctx, res, err)
		return res
	}

	tokens, err := tools.DecodeResult(toolResult)
	if err != nil {
		// The model still gets the raw result, the UI shows no rows
		res.log.Warnw("Tool result has no tokens for the UI", "error", err)
		tokens = []token.FilteredToken{}
	}
	res.ToolInvoked = true
	res.Tokens = tokens
	res.Outcome = OutcomeTokens
	if len(tokens) == 0 {
		res.Outcome = OutcomeNoTokens
	}

	res.logf("Tool execution complete. Found %d tokens. Synthesizing response...", len(tokens))

	text, err := o.planner.Summarize(ctx, prompt, decision, toolResult)
	if err != nil {
		o.fail(ctx, res, err)
		return res
	}

	res.Text = strings.TrimSpace(text)
	if res.Text == "" {
		res.Text = TextAnalysisComplete
	}

	return res
}

// fail maps err to the user-facing text and reports it. A failed run carries
// the text only, tokens already fetched are dropped.
func (o *Orchestrator) fail(ctx context.Context, res *Result, err error) {
	res.Err = err
	res.ToolInvoked = false
	res.Tokens = nil

	switch {
	case ai.IsUnavailable(err):
		res.Text = TextModelUnavailable
		res.Outcome = OutcomeUnavailable
	case errors.Is(err, ErrNoResponse):
		res.Text = TextNoResponse
		res.Outcome = OutcomeNoResponse
	default:
		res.Text = TextAgentError
		res.Outcome = OutcomeError
	}

	// ctx carries the run id, res.log would repeat it
	o.log.ErrorWithContext(ctx, errors.Wrap(err, "agent run"), map[string]string{
		"planner": res.Planner,
		"outcome": res.Outcome,
	})
}

func (o *Orchestrator) publish(ctx context.Context, res *Result, prompt string, duration time.Duration) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.NewScreeningCompleted(res.RunID, prompt, res.Planner, res.Outcome, res.Criteria, res.Tokens, duration)
	if err := o.publisher.PublishScreeningCompleted(pubCtx, event); err != nil {
		res.log.Warnw("Screening event not published", "error", err)
	}
}

func compactJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}
	return buf.String()
}
