package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     SortKey
	}{
		{"young tokens", FilterCriteria{MaxAgeDays: Ptr(7.0)}, SortByVolume},
		{"age at threshold", FilterCriteria{MaxAgeDays: Ptr(30.0)}, SortByMarketCap},
		{"large caps", FilterCriteria{MinMarketCap: Ptr(50e6)}, SortByLiquidity},
		{"cap at threshold", FilterCriteria{MinMarketCap: Ptr(10e6)}, SortByMarketCap},
		{"young wins over large cap", FilterCriteria{MaxAgeDays: Ptr(3.0), MinMarketCap: Ptr(50e6)}, SortByVolume},
		{"no constraints", FilterCriteria{}, SortByMarketCap},
		{"zero age is unset", FilterCriteria{MaxAgeDays: Ptr(0.0)}, SortByMarketCap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortKeyFor(tt.criteria))
		})
	}
}

func TestRank_Descending(t *testing.T) {
	tokens := []FilteredToken{
		{Symbol: "A", Volume24hRaw: 10, LiquidityRaw: 300, MarketCapRaw: 2},
		{Symbol: "B", Volume24hRaw: 30, LiquidityRaw: 100, MarketCapRaw: 3},
		{Symbol: "C", Volume24hRaw: 20, LiquidityRaw: 200, MarketCapRaw: 1},
	}

	byVolume := append([]FilteredToken(nil), tokens...)
	assert.Equal(t, SortByVolume, Rank(byVolume, FilterCriteria{MaxAgeDays: Ptr(7.0)}))
	assert.Equal(t, []string{"B", "C", "A"}, symbols(byVolume))

	byLiquidity := append([]FilteredToken(nil), tokens...)
	assert.Equal(t, SortByLiquidity, Rank(byLiquidity, FilterCriteria{MinMarketCap: Ptr(20e6)}))
	assert.Equal(t, []string{"A", "C", "B"}, symbols(byLiquidity))

	byCap := append([]FilteredToken(nil), tokens...)
	assert.Equal(t, SortByMarketCap, Rank(byCap, FilterCriteria{}))
	assert.Equal(t, []string{"B", "A", "C"}, symbols(byCap))
}

func TestRank_StableOnTies(t *testing.T) {
	tokens := []FilteredToken{
		{Symbol: "first", MarketCapRaw: 5},
		{Symbol: "top", MarketCapRaw: 9},
		{Symbol: "second", MarketCapRaw: 5},
		{Symbol: "third", MarketCapRaw: 5},
	}

	Rank(tokens, FilterCriteria{})

	assert.Equal(t, []string{"top", "first", "second", "third"}, symbols(tokens))
}

func symbols(tokens []FilteredToken) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Symbol
	}
	return out
}
