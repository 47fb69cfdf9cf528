package agents

import (
	"encoding/json"
	"fmt"
	"sync"

	"ossy/internal/domain/token"
	"ossy/pkg/logger"
)

// User-facing texts of a run
const (
	TextAnalysisComplete = "Analysis complete."
	TextCouldNotProcess  = "I couldn't process that request."
	TextNoResponse       = "No response from AI."
	TextModelUnavailable = "Error: The AI model is currently unavailable (404). Please try again later or check API configuration."
	TextAgentError       = "An error occurred while communicating with the AI Agent."
)

// Run outcomes reported in metrics and events
const (
	OutcomeTokens      = "tokens"
	OutcomeNoTokens    = "no_tokens"
	OutcomeDeclined    = "declined"
	OutcomeNoResponse  = "no_response"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Result is what a run hands back to the UI. It never carries a Go error to
// the caller as a failure, Err is kept for logging and tests.
type Result struct {
	RunID    string
	Text     string
	Tokens   []token.FilteredToken
	Criteria *token.FilterCriteria
	Planner  string
	Outcome  string
	Err      error

	// ToolInvoked distinguishes "no tokens found" from "no screen ran"
	ToolInvoked bool

	mu   sync.Mutex
	logs []string
	log  *logger.Logger
}

// Logs returns the run's log lines in order
func (r *Result) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

func (r *Result) logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)

	r.mu.Lock()
	r.logs = append(r.logs, line)
	r.mu.Unlock()

	if r.log != nil {
		r.log.Info(line)
	}
}

// MarshalJSON renders {runId, text, tokens?, criteria?, logs}. tokens is
// present, possibly empty, exactly when the screen ran.
func (r *Result) MarshalJSON() ([]byte, error) {
	view := struct {
		RunID    string                 `json:"runId"`
		Text     string                 `json:"text"`
		Tokens   *[]token.FilteredToken `json:"tokens,omitempty"`
		Criteria *token.FilterCriteria  `json:"criteria,omitempty"`
		Logs     []string               `json:"logs"`
	}{
		RunID:    r.RunID,
		Text:     r.Text,
		Criteria: r.Criteria,
		Logs:     r.Logs(),
	}

	if r.ToolInvoked {
		tokens := r.Tokens
		if tokens == nil {
			tokens = []token.FilteredToken{}
		}
		view.Tokens = &tokens
	}
	if view.Logs == nil {
		view.Logs = []string{}
	}

	return json.Marshal(view)
}
