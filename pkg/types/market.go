package types

import "time"

// PricePoint is the payload of the price endpoint.
type PricePoint struct {
	Symbol     string    `json:"symbol"`
	Price      string    `json:"price"` // two decimal places
	LastUpdate time.Time `json:"lastUpdate"`
	Source     string    `json:"source"`
}

// Price source tags.
const (
	SourceMock  = "mock-data"
	SourceOKX   = "okx"
	SourceCache = "cache"
)

// Candle is one OHLCV bar. Timestamp is the bar open time in epoch milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// PriceDataPoint is a sampled price kept by the price state.
type PriceDataPoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertData describes a price move that crossed the alert threshold.
type AlertData struct {
	Symbol        string        `json:"symbol"`
	CurrentPrice  float64       `json:"current_price"`
	PastPrice     float64       `json:"past_price"`
	ChangePercent float64       `json:"change_percent"`
	AlertTime     time.Time     `json:"alert_time"`
	MonitorPeriod time.Duration `json:"monitor_period"`
}
