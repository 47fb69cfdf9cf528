package token

import (
	"strconv"
	"strings"
)

// BoostedCandidate is one entry of the DexScreener "top boosted" list.
// Only ChainID and TokenAddress are used past the candidate selection step.
type BoostedCandidate struct {
	URL          string  `json:"url"`
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Amount       float64 `json:"amount"`      // Active promotion amount
	TotalAmount  float64 `json:"totalAmount"` // Lifetime promotion amount
	Description  string  `json:"description,omitempty"`
	Icon         string  `json:"icon,omitempty"`
}

// TokenPair is the raw pair detail record returned for a token address.
// Numeric fields are pointers so that a missing field stays distinguishable.
type TokenPair struct {
	ChainID       string     `json:"chainId"`
	DexID         string     `json:"dexId"`
	URL           string     `json:"url"`
	PairAddress   string     `json:"pairAddress"`
	BaseToken     BaseToken  `json:"baseToken"`
	QuoteToken    BaseToken  `json:"quoteToken"`
	PriceUSD      *string    `json:"priceUsd,omitempty"` // Decimal string, as sent by the API
	Liquidity     *Liquidity `json:"liquidity,omitempty"`
	Volume        *Window    `json:"volume,omitempty"`
	PriceChange   *Window    `json:"priceChange,omitempty"` // Percent
	FDV           *float64   `json:"fdv,omitempty"`
	MarketCap     *float64   `json:"marketCap,omitempty"`
	PairCreatedAt *int64     `json:"pairCreatedAt,omitempty"` // Epoch milliseconds
	Info          *PairInfo  `json:"info,omitempty"`
}

type BaseToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Liquidity struct {
	USD   *float64 `json:"usd,omitempty"`
	Base  float64  `json:"base,omitempty"`
	Quote float64  `json:"quote,omitempty"`
}

// Window holds a metric over the DexScreener time windows
type Window struct {
	M5  *float64 `json:"m5,omitempty"`
	H1  *float64 `json:"h1,omitempty"`
	H6  *float64 `json:"h6,omitempty"`
	H24 *float64 `json:"h24,omitempty"`
}

type PairInfo struct {
	ImageURL string    `json:"imageUrl,omitempty"`
	Websites []Website `json:"websites,omitempty"`
	Socials  []Social  `json:"socials,omitempty"`
}

type Website struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// Social is a project social link. Older payloads use "platform", newer ones "type".
type Social struct {
	Platform string `json:"platform,omitempty"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url"`
}

// Kind returns the social network name regardless of payload version
func (s Social) Kind() string {
	if s.Platform != "" {
		return strings.ToLower(s.Platform)
	}
	return strings.ToLower(s.Type)
}

// The accessors below treat a zero value the same as a missing one.
// DexScreener reports unknown metrics as 0 for fresh pairs.

// LiquidityUSD returns pool liquidity in USD
func (p *TokenPair) LiquidityUSD() (float64, bool) {
	if p.Liquidity == nil {
		return 0, false
	}
	return present(p.Liquidity.USD)
}

// Volume24h returns the 24h traded volume in USD
func (p *TokenPair) Volume24h() (float64, bool) {
	if p.Volume == nil {
		return 0, false
	}
	return present(p.Volume.H24)
}

// PriceChange24h returns the 24h price change in percent
func (p *TokenPair) PriceChange24h() (float64, bool) {
	if p.PriceChange == nil {
		return 0, false
	}
	return present(p.PriceChange.H24)
}

// MarketCapUSD returns the market capitalization in USD
func (p *TokenPair) MarketCapUSD() (float64, bool) {
	return present(p.MarketCap)
}

// CreatedAtMs returns the pair creation time in epoch milliseconds
func (p *TokenPair) CreatedAtMs() (int64, bool) {
	if p.PairCreatedAt == nil || *p.PairCreatedAt == 0 {
		return 0, false
	}
	return *p.PairCreatedAt, true
}

// PriceUSDText returns the raw price string. Unlike the numeric metrics a
// "0" price is kept, only a missing or empty string is absent.
func (p *TokenPair) PriceUSDText() (string, bool) {
	if p.PriceUSD == nil {
		return "", false
	}
	s := strings.TrimSpace(*p.PriceUSD)
	return s, s != ""
}

// PriceUSDValue parses the price string
func (p *TokenPair) PriceUSDValue() (float64, bool) {
	s, ok := p.PriceUSDText()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func present(v *float64) (float64, bool) {
	if v == nil || *v == 0 {
		return 0, false
	}
	return *v, true
}

// FilteredToken is the display-ready record produced for every kept pair.
// Each *Raw field and its display twin come from the same source value.
type FilteredToken struct {
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Address        string  `json:"address"`
	Chain          string  `json:"chain"`
	Dex            string  `json:"dex"`
	Price          string  `json:"price"`
	PriceRaw       float64 `json:"priceRaw"`
	Liquidity      string  `json:"liquidity"`
	LiquidityRaw   float64 `json:"liquidityRaw"`
	MarketCap      string  `json:"marketCap"`
	MarketCapRaw   float64 `json:"marketCapRaw"`
	Volume24h      string  `json:"volume24h"`
	Volume24hRaw   float64 `json:"volume24hRaw"`
	PriceChange24h string  `json:"priceChange24h"`
	PriceChangeRaw float64 `json:"priceChangeRaw"`
	Age            string  `json:"age"`
	AgeDays        int64   `json:"ageDays"`
	Website        string  `json:"website"`
	Twitter        string  `json:"twitter"`
	DexScreenerURL string  `json:"dexScreenerUrl"`
}

// NotAvailable is the display value of a missing field
const NotAvailable = "N/A"
