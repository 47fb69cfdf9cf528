package token

import "time"

const msPerDay = 24 * 60 * 60 * 1000

// Matches evaluates every numeric constraint against a pair (logical AND).
// A set constraint whose source metric is missing is not satisfied.
// The chain constraint is applied to candidates, not here.
func (c FilterCriteria) Matches(p *TokenPair, now time.Time) bool {
	if p == nil {
		return false
	}

	if floor, ok := bound(c.MinVolume24h); ok {
		v, has := p.Volume24h()
		if !has || v < floor {
			return false
		}
	}

	if floor, ok := bound(c.MinLiquidity); ok {
		v, has := p.LiquidityUSD()
		if !has || v < floor {
			return false
		}
	}

	if floor, ok := bound(c.MinMarketCap); ok {
		v, has := p.MarketCapUSD()
		if !has || v < floor {
			return false
		}
	}

	if ceiling, ok := bound(c.MaxMarketCap); ok {
		v, has := p.MarketCapUSD()
		if !has || v > ceiling {
			return false
		}
	}

	if maxDays, ok := bound(c.MaxAgeDays); ok {
		created, has := p.CreatedAtMs()
		if !has {
			return false
		}
		// Whole days, the same age the table shows; inclusive
		if float64(AgeDays(created, now)) > maxDays {
			return false
		}
	}

	return true
}
