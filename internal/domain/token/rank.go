package token

import "sort"

// SortKey names the metric a result list is ordered by (descending)
type SortKey string

const (
	SortByVolume    SortKey = "volume24h"
	SortByLiquidity SortKey = "liquidity"
	SortByMarketCap SortKey = "marketCap"
)

const (
	youngAgeDays  = 30
	largeCapFloor = 10_000_000
)

// SortKeyFor picks the ordering for a criteria set: young-token screens rank by
// volume, large-cap screens by liquidity, everything else by market cap.
func SortKeyFor(c FilterCriteria) SortKey {
	if days, ok := bound(c.MaxAgeDays); ok && days < youngAgeDays {
		return SortByVolume
	}
	if floor, ok := bound(c.MinMarketCap); ok && floor > largeCapFloor {
		return SortByLiquidity
	}
	return SortByMarketCap
}

// Rank sorts tokens in place, descending by the key for c. The sort is stable
// so ties keep their input order.
func Rank(tokens []FilteredToken, c FilterCriteria) SortKey {
	key := SortKeyFor(c)
	metric := rawMetric(key)
	sort.SliceStable(tokens, func(i, j int) bool {
		return metric(tokens[i]) > metric(tokens[j])
	})
	return key
}

func rawMetric(key SortKey) func(FilteredToken) float64 {
	switch key {
	case SortByVolume:
		return func(t FilteredToken) float64 { return t.Volume24hRaw }
	case SortByLiquidity:
		return func(t FilteredToken) float64 { return t.LiquidityRaw }
	default:
		return func(t FilteredToken) float64 { return t.MarketCapRaw }
	}
}
