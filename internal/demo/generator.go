package demo

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"bnb-dashboard/internal/random"
	"bnb-dashboard/pkg/types"

	"github.com/shopspring/decimal"
)

// Request limits shared by the HTTP layer and the generators.
const (
	DefaultHistoricalLimit = 30
	MaxHistoricalLimit     = 1000
	DefaultSignalLimit     = 10
	MaxSignalLimit         = 100
)

// maxStepChange caps the per-candle move of a synthetic series.
const maxStepChange = 0.5

// DefaultSymbol is used when a request omits the symbol.
const DefaultSymbol = "BNBUSDT"

const (
	signalSourceTA = "Technical Analysis"
	signalSourceAI = "AI Prediction"
)

// priceBand is the quote level and the +/- spread of a mock price.
type priceBand struct {
	base   float64
	spread float64
}

func bandFor(symbol string) priceBand {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "BNB"):
		return priceBand{base: 380, spread: 10}
	case strings.Contains(s, "BTC"):
		return priceBand{base: 60000, spread: 1000}
	case strings.Contains(s, "ETH"):
		return priceBand{base: 3000, spread: 50}
	default:
		return priceBand{base: 100, spread: 5}
	}
}

// seriesBase is the opening level of a synthetic candle series.
func seriesBase(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "BNB") {
		return 380
	}
	return 60000
}

// Generator produces the dashboard's synthetic market data.
type Generator struct {
	rng random.Source
	now func() time.Time
}

// NewGenerator returns a generator drawing from rng.
func NewGenerator(rng random.Source) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// WithClock replaces the time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) between(lo, hi float64) float64 {
	return random.Between(g.rng, lo, hi)
}

// Price returns a mock quote for symbol.
func (g *Generator) Price(symbol string) types.PricePoint {
	band := bandFor(symbol)
	price := band.base + g.between(0, 2*band.spread) - band.spread

	return types.PricePoint{
		Symbol:     symbol,
		Price:      decimal.NewFromFloat(price).StringFixed(2),
		LastUpdate: g.now(),
		Source:     types.SourceMock,
	}
}

// Historical returns count candles ending one interval before now, oldest first.
func (g *Generator) Historical(symbol string, interval types.Interval, count int) []types.Candle {
	if count <= 0 {
		return []types.Candle{}
	}

	base := seriesBase(symbol)
	vol := interval.Volatility()
	step := interval.Millis()
	nowMs := g.now().UnixMilli()

	trend := -1.0
	if g.rng.Float64() > 0.5 {
		trend = 1.0
	}
	strength := g.between(0, 0.001)

	candles := make([]types.Candle, 0, count)
	prevClose := base
	for i := 0; i < count; i++ {
		change := g.between(-vol, vol) + trend*strength*float64(i)
		// bounded so long series stay positive and finite
		change = math.Max(-maxStepChange, math.Min(maxStepChange, change))
		closePrice := prevClose * (1 + change)
		open := prevClose

		candles = append(candles, types.Candle{
			Timestamp: nowMs - int64(count-i)*step,
			Open:      open,
			High:      math.Max(open, closePrice) * (1 + g.between(0, vol)),
			Low:       math.Min(open, closePrice) * (1 - g.between(0, vol)),
			Close:     closePrice,
			Volume:    base * 10 * g.between(0.8, 1.2),
		})
		prevClose = closePrice
	}
	return candles
}

// Signals returns count mock signals, newest first. An empty forced type draws
// the type per signal.
func (g *Generator) Signals(count int, forced types.SignalType) []types.Signal {
	if count <= 0 {
		return []types.Signal{}
	}

	now := g.now()
	signals := make([]types.Signal, 0, count)
	for i := 0; i < count; i++ {
		kind := forced
		if kind == "" {
			kind = g.drawSignalType()
		}

		confidence := g.rng.Intn(20) + 40
		if kind.IsDirectional() {
			confidence = g.rng.Intn(30) + 60
		}

		price := 370 + g.rng.Float64()*30
		ts := now.Add(-time.Duration(g.rng.Float64() * float64(24*time.Hour)))

		source := signalSourceAI
		if g.rng.Float64() > 0.5 {
			source = signalSourceTA
		}

		signals = append(signals, types.Signal{
			ID:         fmt.Sprintf("signal-%d", i+1),
			Timestamp:  ts,
			Symbol:     DefaultSymbol,
			Type:       kind,
			Price:      price,
			Confidence: confidence,
			Source:     source,
			Indicators: types.IndicatorSnapshot{
				RSI:  g.rng.Intn(100),
				MACD: g.pick("bullish", "bearish"),
				MA:   g.pick("above", "below"),
			},
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Timestamp.After(signals[j].Timestamp)
	})
	return signals
}

func (g *Generator) drawSignalType() types.SignalType {
	r := g.rng.Float64()
	switch {
	case r > 0.6:
		return types.SignalBuy
	case r > 0.2:
		return types.SignalSell
	default:
		return types.SignalNeutral
	}
}

func (g *Generator) pick(a, b string) string {
	if g.rng.Float64() > 0.5 {
		return a
	}
	return b
}

// TradingStats returns one synthetic performance summary.
func (g *Generator) TradingStats() types.TradingStats {
	const (
		tradeSize  = 0.5
		tradePrice = 380.0
	)

	total := g.rng.Intn(50) + 30
	winRate := g.between(55, 75)
	successful := int(math.Round(float64(total) * winRate / 100))
	profitPct := g.between(3, 8)
	totalProfit := float64(total) * tradeSize * tradePrice * profitPct / 100

	now := g.now()
	within30Days := func() time.Time {
		return now.Add(-time.Duration(g.rng.Float64() * float64(30*24*time.Hour)))
	}

	return types.TradingStats{
		TotalTrades:      total,
		SuccessfulTrades: successful,
		FailedTrades:     total - successful,
		WinRate:          winRate,
		TotalProfit:      totalProfit,
		AverageProfit:    totalProfit / float64(total),
		ProfitFactor:     g.between(1.5, 2),
		MaxDrawdown:      g.between(5, 15),
		SharpeRatio:      g.between(1.2, 2),
		BestTrade: types.TradeRecord{
			Symbol: DefaultSymbol,
			Profit: g.between(12, 20),
			Date:   within30Days(),
		},
		WorstTrade: types.TradeRecord{
			Symbol: DefaultSymbol,
			Loss:   g.between(5, 10),
			Date:   within30Days(),
		},
	}
}

// BotStatus merges the configured bot settings with freshly drawn volatile fields.
func (g *Generator) BotStatus(cfg types.BotConfig) types.BotStatus {
	lastSignal := types.SignalSell
	if g.rng.Float64() > 0.5 {
		lastSignal = types.SignalBuy
	}

	symbols := cfg.ActiveSymbols
	if len(symbols) == 0 {
		symbols = []string{"BNBUSDT", "BTCUSDT"}
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	return types.BotStatus{
		Running:              true,
		LastAnalysis:         g.now().Add(-time.Duration(g.rng.Intn(15)) * time.Minute),
		AnalysisInterval:     cfg.AnalysisInterval,
		SignalThreshold:      cfg.SignalThreshold,
		AutoTrading:          cfg.AutoTrading,
		Version:              version,
		Uptime:               fmt.Sprintf("%d minutes", g.rng.Intn(24*60)),
		ActiveSymbols:        append([]string(nil), symbols...),
		LastSignal:           lastSignal,
		LastSignalConfidence: g.rng.Intn(30) + 65,
	}
}

// ClampLimit uses def when the caller gave no limit and bounds the result to [lo, hi].
func ClampLimit(n, def, lo, hi int, given bool) int {
	if !given {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
