package token

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatUSD renders "$" and a grouped amount with at most 3 fraction digits,
// trailing zeros dropped: 1234567.5 -> "$1,234,567.5"
func FormatUSD(v float64) string {
	rounded := decimal.NewFromFloat(v).Round(3).InexactFloat64()
	return "$" + humanize.CommafWithDigits(rounded, 3)
}

// FormatPrice renders a decimal price string with exactly 6 fraction digits
func FormatPrice(s string) (string, float64, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return NotAvailable, 0, false
	}
	return "$" + d.StringFixed(6), d.InexactFloat64(), true
}

// FormatPercent renders a percentage with 2 fraction digits
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// AgeDays returns whole days elapsed since createdMs, truncated toward zero
func AgeDays(createdMs int64, now time.Time) int64 {
	return (now.UnixMilli() - createdMs) / msPerDay
}

// Shape converts a kept pair into its display record
func Shape(p *TokenPair, now time.Time) FilteredToken {
	out := FilteredToken{
		Name:           p.BaseToken.Name,
		Symbol:         p.BaseToken.Symbol,
		Address:        p.BaseToken.Address,
		Chain:          p.ChainID,
		Dex:            p.DexID,
		Price:          NotAvailable,
		Liquidity:      NotAvailable,
		MarketCap:      NotAvailable,
		Volume24h:      NotAvailable,
		PriceChange24h: NotAvailable,
		Age:            NotAvailable,
		Website:        NotAvailable,
		Twitter:        NotAvailable,
		DexScreenerURL: p.URL,
	}

	if s, ok := p.PriceUSDText(); ok {
		out.Price, out.PriceRaw, _ = FormatPrice(s)
	}
	if v, ok := p.LiquidityUSD(); ok {
		out.Liquidity, out.LiquidityRaw = FormatUSD(v), v
	}
	if v, ok := p.MarketCapUSD(); ok {
		out.MarketCap, out.MarketCapRaw = FormatUSD(v), v
	}
	if v, ok := p.Volume24h(); ok {
		out.Volume24h, out.Volume24hRaw = FormatUSD(v), v
	}
	if v, ok := p.PriceChange24h(); ok {
		out.PriceChange24h, out.PriceChangeRaw = FormatPercent(v), v
	}
	if created, ok := p.CreatedAtMs(); ok {
		out.AgeDays = AgeDays(created, now)
		out.Age = fmt.Sprintf("%d days", out.AgeDays)
	}

	if p.Info != nil {
		if len(p.Info.Websites) > 0 && p.Info.Websites[0].URL != "" {
			out.Website = p.Info.Websites[0].URL
		}
		for _, s := range p.Info.Socials {
			if s.Kind() == "twitter" {
				if s.URL != "" {
					out.Twitter = s.URL
				}
				break
			}
		}
	}

	return out
}
