package types

import (
	"fmt"
	"strings"
	"time"
)

// SignalType is the direction of a trading signal.
type SignalType string

const (
	SignalBuy     SignalType = "BUY"
	SignalSell    SignalType = "SELL"
	SignalNeutral SignalType = "NEUTRAL"
)

// IsDirectional reports whether the signal is BUY or SELL.
func (t SignalType) IsDirectional() bool {
	return t == SignalBuy || t == SignalSell
}

// ParseSignalType accepts BUY, SELL or NEUTRAL in any case.
func ParseSignalType(s string) (SignalType, error) {
	switch t := SignalType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SignalBuy, SignalSell, SignalNeutral:
		return t, nil
	default:
		return "", fmt.Errorf("invalid signal type %q", s)
	}
}

// Signal is one entry of the signals table.
type Signal struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Symbol     string            `json:"symbol"`
	Type       SignalType        `json:"type"`
	Price      float64           `json:"price"`
	Confidence int               `json:"confidence"` // percent
	Source     string            `json:"source"`
	Indicators IndicatorSnapshot `json:"indicators"`
}

// IndicatorSnapshot qualitative indicator readings attached to a signal.
type IndicatorSnapshot struct {
	RSI  int    `json:"rsi"`
	MACD string `json:"macd"` // bullish or bearish
	MA   string `json:"ma"`   // above or below
}
