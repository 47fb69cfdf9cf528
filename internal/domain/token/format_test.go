package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234567.5, "$1,234,567.5"},
		{50000, "$50,000"},
		{999, "$999"},
		{1234.5678, "$1,234.568"},
		{0.25, "$0.25"},
		{12.1, "$12.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(tt.in), "FormatUSD(%v)", tt.in)
	}
}

func TestFormatPrice(t *testing.T) {
	s, raw, ok := FormatPrice("0.00001234")
	require.True(t, ok)
	assert.Equal(t, "$0.000012", s)
	assert.InDelta(t, 0.00001234, raw, 1e-12)

	s, _, ok = FormatPrice("1.5")
	require.True(t, ok)
	assert.Equal(t, "$1.500000", s)

	s, raw, ok = FormatPrice("not-a-number")
	assert.False(t, ok)
	assert.Equal(t, NotAvailable, s)
	assert.Zero(t, raw)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.35%", FormatPercent(12.345678))
	assert.Equal(t, "-3.10%", FormatPercent(-3.1))
}

func TestShape_FullRecord(t *testing.T) {
	created := testNow.UnixMilli() - 3*msPerDay - 3_600_000
	p := newPair("OSY",
		withLiquidity(250_000),
		withVolume(1_234_567.5),
		withMarketCap(4_500_000),
		withCreatedAt(created),
	)
	p.PriceUSD = Ptr("0.0421")
	p.PriceChange = &Window{H24: Ptr(12.3456)}
	p.Info = &PairInfo{
		Websites: []Website{{Label: "Website", URL: "https://ossy.example"}},
		Socials: []Social{
			{Type: "telegram", URL: "https://t.me/ossy"},
			{Type: "twitter", URL: "https://x.com/ossy"},
		},
	}

	got := Shape(p, testNow)

	assert.Equal(t, "OSY Token", got.Name)
	assert.Equal(t, "OSY", got.Symbol)
	assert.Equal(t, "addr-OSY", got.Address)
	assert.Equal(t, "solana", got.Chain)
	assert.Equal(t, "raydium", got.Dex)
	assert.Equal(t, "$0.042100", got.Price)
	assert.InDelta(t, 0.0421, got.PriceRaw, 1e-12)
	assert.Equal(t, "$250,000", got.Liquidity)
	assert.Equal(t, 250_000.0, got.LiquidityRaw)
	assert.Equal(t, "$4,500,000", got.MarketCap)
	assert.Equal(t, 4_500_000.0, got.MarketCapRaw)
	assert.Equal(t, "$1,234,567.5", got.Volume24h)
	assert.Equal(t, 1_234_567.5, got.Volume24hRaw)
	assert.Equal(t, "12.35%", got.PriceChange24h)
	assert.Equal(t, 12.3456, got.PriceChangeRaw)
	assert.Equal(t, "3 days", got.Age)
	assert.Equal(t, int64(3), got.AgeDays)
	assert.Equal(t, "https://ossy.example", got.Website)
	assert.Equal(t, "https://x.com/ossy", got.Twitter)
	assert.Equal(t, "https://dexscreener.com/solana/OSY", got.DexScreenerURL)
}

func TestShape_MissingFieldsDefault(t *testing.T) {
	got := Shape(newPair("BARE", withLiquidity(0)), testNow)

	assert.Equal(t, NotAvailable, got.Price)
	assert.Zero(t, got.PriceRaw)
	assert.Equal(t, NotAvailable, got.Liquidity)
	assert.Zero(t, got.LiquidityRaw)
	assert.Equal(t, NotAvailable, got.MarketCap)
	assert.Equal(t, NotAvailable, got.Volume24h)
	assert.Equal(t, NotAvailable, got.PriceChange24h)
	assert.Equal(t, NotAvailable, got.Age)
	assert.Zero(t, got.AgeDays)
	assert.Equal(t, NotAvailable, got.Website)
	assert.Equal(t, NotAvailable, got.Twitter)
}

func TestShape_LegacySocialPlatform(t *testing.T) {
	p := newPair("OLD")
	p.Info = &PairInfo{Socials: []Social{{Platform: "Twitter", URL: "https://twitter.com/old"}}}

	assert.Equal(t, "https://twitter.com/old", Shape(p, testNow).Twitter)
}
