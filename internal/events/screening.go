package events

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"ossy/internal/domain/token"
)

// EventTypeScreeningCompleted marks the event emitted after every agent run
const EventTypeScreeningCompleted = "screening.completed"

const maxSymbols = 10

// ScreeningCompleted summarizes one finished agent run
type ScreeningCompleted struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`

	RunID      string                `json:"runId"`
	Prompt     string                `json:"prompt"`
	Planner    string                `json:"planner"`
	Outcome    string                `json:"outcome"`
	Criteria   *token.FilterCriteria `json:"criteria,omitempty"`
	TokenCount int                   `json:"tokenCount"`
	Symbols    []string              `json:"symbols,omitempty"` // Top ranked symbols, at most 10
	DurationMs int64                 `json:"durationMs"`
}

// NewScreeningCompleted builds the event for a run
func NewScreeningCompleted(runID, prompt, planner, outcome string, criteria *token.FilterCriteria, tokens []token.FilteredToken, duration time.Duration) *ScreeningCompleted {
	symbols := make([]string, 0, min(len(tokens), maxSymbols))
	for _, t := range tokens {
		if len(symbols) == maxSymbols {
			break
		}
		symbols = append(symbols, sanitizeUTF8(t.Symbol))
	}

	return &ScreeningCompleted{
		ID:         uuid.NewString(),
		Type:       EventTypeScreeningCompleted,
		Source:     "ossy",
		Timestamp:  time.Now().UTC(),
		RunID:      runID,
		Prompt:     sanitizeUTF8(prompt),
		Planner:    planner,
		Outcome:    outcome,
		Criteria:   criteria,
		TokenCount: len(tokens),
		Symbols:    symbols,
		DurationMs: duration.Milliseconds(),
	}
}

// sanitizeUTF8 drops invalid bytes. Token names from the listings are not always valid UTF-8.
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "")
}
