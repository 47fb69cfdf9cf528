package strategy

import (
	"strings"

	"ossy/internal/domain/token"
	"ossy/pkg/errors"
)

// ID identifies a catalog strategy
type ID string

const (
	Aggressive        ID = "aggressive"
	Growth            ID = "growth"
	InflationFighting ID = "inflation_fighting"
)

// Strategy is a static screening profile the user can pick
type Strategy struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// PromptContext is appended to the run prompt to steer the model's criteria
	PromptContext string `json:"promptContext"`
	// Guidance is the one-line risk profile listed in the system instruction
	Guidance string `json:"-"`
	// Criteria is used when no language model is configured
	Criteria token.FilterCriteria `json:"defaultCriteria"`
	// Risk drives the card accent in the page
	Risk string `json:"risk"`
}

var catalog = []Strategy{
	{
		ID:            Aggressive,
		Title:         "Aggressive",
		Description:   "High risk, high reward. Targets new launches with high volatility.",
		PromptContext: "Look for tokens with low market cap (<$5M), high volume relative to liquidity, and very young age (<7 days).",
		Guidance:      "Aggressive: High risk. Low caps, new tokens.",
		Criteria: token.FilterCriteria{
			MinVolume24h: token.Ptr(50_000.0),
			MinLiquidity: token.Ptr(10_000.0),
			MaxMarketCap: token.Ptr(5_000_000.0),
			MaxAgeDays:   token.Ptr(7.0),
		},
		Risk: "high",
	},
	{
		ID:            Growth,
		Title:         "Growth",
		Description:   "Balanced approach. Targets established projects with upward momentum.",
		PromptContext: "Look for tokens with mid market cap ($5M - $50M), consistent volume, and established positive price action.",
		Guidance:      "Growth: Medium risk. Established, rising volume.",
		Criteria: token.FilterCriteria{
			MinVolume24h: token.Ptr(100_000.0),
			MinLiquidity: token.Ptr(100_000.0),
			MinMarketCap: token.Ptr(5_000_000.0),
			MaxMarketCap: token.Ptr(50_000_000.0),
		},
		Risk: "medium",
	},
	{
		ID:            InflationFighting,
		Title:         "Inflation Fighting",
		Description:   "Defensive strategy. Targets high liquidity and established track records.",
		PromptContext: "Look for tokens with high market cap (>$50M), very high liquidity, and older age (>90 days).",
		Guidance:      "Inflation Fighting: Low risk. High liquidity, high cap, old tokens.",
		Criteria: token.FilterCriteria{
			MinLiquidity: token.Ptr(1_000_000.0),
			MinMarketCap: token.Ptr(50_000_000.0),
		},
		Risk: "low",
	},
}

// Catalog returns a copy of all strategies in display order
func Catalog() []Strategy {
	out := make([]Strategy, len(catalog))
	copy(out, catalog)
	return out
}

// Titles returns the strategy titles in display order
func Titles() []string {
	titles := make([]string, len(catalog))
	for i, s := range catalog {
		titles[i] = s.Title
	}
	return titles
}

// Guidance returns the per-strategy risk lines in display order
func Guidance() []string {
	lines := make([]string, len(catalog))
	for i, s := range catalog {
		lines[i] = s.Guidance
	}
	return lines
}

// Lookup finds a strategy by id or title, case-insensitively
func Lookup(key string) (Strategy, error) {
	key = strings.TrimSpace(key)
	for _, s := range catalog {
		if strings.EqualFold(string(s.ID), key) || strings.EqualFold(s.Title, key) {
			return s, nil
		}
	}
	return Strategy{}, errors.Wrapf(errors.ErrNotFound, "strategy %q", key)
}

// Match returns the first strategy whose title appears in a free-form prompt
func Match(prompt string) (Strategy, bool) {
	lower := strings.ToLower(prompt)
	for _, s := range catalog {
		if strings.Contains(lower, strings.ToLower(s.Title)) {
			return s, true
		}
	}
	return Strategy{}, false
}
