package web

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"ossy/internal/domain/token"
)

// Scatter chart geometry in SVG user units
const (
	chartWidth     = 720
	chartHeight    = 360
	chartPadLeft   = 64
	chartPadRight  = 24
	chartPadTop    = 16
	chartPadBottom = 44

	minBubble = 4.0
	maxBubble = 18.0

	colorGain = "#22c55e"
	colorLoss = "#ef4444"
)

// Chart is the render model of the market cap / volume scatter plot
type Chart struct {
	Width, Height int
	// Plot area bounds
	Left, Right, Top, Bottom float64

	Points []ChartPoint
	XTicks []ChartTick
	YTicks []ChartTick
}

// ChartPoint is one token bubble
type ChartPoint struct {
	X, Y, R float64
	Color   string
	Label   string
	Tooltip string
}

// ChartTick is an axis grid line at a power of ten
type ChartTick struct {
	Pos   float64
	Label string
}

// logAxis maps positive values onto [lo, hi] by decade
type logAxis struct {
	minExp, maxExp float64
	lo, hi         float64
}

func newLogAxis(values []float64, lo, hi float64) logAxis {
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	a := logAxis{
		minExp: math.Floor(math.Log10(minV)),
		maxExp: math.Ceil(math.Log10(maxV)),
		lo:     lo,
		hi:     hi,
	}
	if a.maxExp <= a.minExp {
		a.maxExp = a.minExp + 1
	}
	return a
}

func (a logAxis) pos(v float64) float64 {
	return a.posExp(math.Log10(v))
}

func (a logAxis) posExp(exp float64) float64 {
	frac := (exp - a.minExp) / (a.maxExp - a.minExp)
	return a.lo + frac*(a.hi-a.lo)
}

func (a logAxis) ticks() []ChartTick {
	ticks := make([]ChartTick, 0, int(a.maxExp-a.minExp)+1)
	for e := a.minExp; e <= a.maxExp; e++ {
		ticks = append(ticks, ChartTick{Pos: a.posExp(e), Label: compactUSD(math.Pow(10, e))})
	}
	return ticks
}

// NewChart plots tokens by market cap (x) and 24h volume (y) on log axes.
// Bubble area follows liquidity, color the sign of the 24h price change.
// Tokens without a positive market cap or volume cannot sit on a log axis
// and are left out. Returns nil when fewer than two tokens can be plotted.
func NewChart(tokens []token.FilteredToken) *Chart {
	plotted := make([]token.FilteredToken, 0, len(tokens))
	for _, t := range tokens {
		if t.MarketCapRaw > 0 && t.Volume24hRaw > 0 {
			plotted = append(plotted, t)
		}
	}
	if len(plotted) < 2 {
		return nil
	}

	c := &Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Left:   chartPadLeft,
		Right:  chartWidth - chartPadRight,
		Top:    chartPadTop,
		Bottom: chartHeight - chartPadBottom,
	}

	caps := make([]float64, len(plotted))
	vols := make([]float64, len(plotted))
	maxLiq := 0.0
	for i, t := range plotted {
		caps[i] = t.MarketCapRaw
		vols[i] = t.Volume24hRaw
		maxLiq = math.Max(maxLiq, t.LiquidityRaw)
	}

	x := newLogAxis(caps, c.Left, c.Right)
	// SVG y grows downwards
	y := newLogAxis(vols, c.Bottom, c.Top)

	c.XTicks = x.ticks()
	c.YTicks = y.ticks()

	c.Points = make([]ChartPoint, 0, len(plotted))
	for _, t := range plotted {
		color := colorGain
		if t.PriceChangeRaw < 0 {
			color = colorLoss
		}
		c.Points = append(c.Points, ChartPoint{
			X:     round1(x.pos(t.MarketCapRaw)),
			Y:     round1(y.pos(t.Volume24hRaw)),
			R:     round1(bubbleRadius(t.LiquidityRaw, maxLiq)),
			Color: color,
			Label: t.Symbol,
			Tooltip: fmt.Sprintf("%s (%s) | MCap %s | Vol %s | Liq %s | %s",
				t.Name, t.Symbol, t.MarketCap, t.Volume24h, t.Liquidity, t.PriceChange24h),
		})
	}

	return c
}

func bubbleRadius(liquidity, maxLiquidity float64) float64 {
	if liquidity <= 0 || maxLiquidity <= 0 {
		return minBubble
	}
	return minBubble + (maxBubble-minBubble)*math.Sqrt(liquidity/maxLiquidity)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// compactUSD renders axis labels like $10k or $1M
func compactUSD(v float64) string {
	return "$" + strings.ReplaceAll(humanize.SIWithDigits(v, 0, ""), " ", "")
}
