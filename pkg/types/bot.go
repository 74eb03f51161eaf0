package types

import "time"

// TradingStats aggregate performance figures shown on the dashboard.
type TradingStats struct {
	TotalTrades      int         `json:"totalTrades"`
	SuccessfulTrades int         `json:"successfulTrades"`
	FailedTrades     int         `json:"failedTrades"`
	WinRate          float64     `json:"winRate"`
	TotalProfit      float64     `json:"totalProfit"`
	AverageProfit    float64     `json:"averageProfit"`
	ProfitFactor     float64     `json:"profitFactor"`
	MaxDrawdown      float64     `json:"maxDrawdown"`
	SharpeRatio      float64     `json:"sharpeRatio"`
	BestTrade        TradeRecord `json:"bestTrade"`
	WorstTrade       TradeRecord `json:"worstTrade"`
}

// TradeRecord a notable trade. Exactly one of Profit or Loss is set.
type TradeRecord struct {
	Symbol string    `json:"symbol"`
	Profit float64   `json:"profit,omitempty"`
	Loss   float64   `json:"loss,omitempty"`
	Date   time.Time `json:"date"`
}

// BotStatus is the payload of the bot status endpoint.
type BotStatus struct {
	Running              bool       `json:"running"`
	LastAnalysis         time.Time  `json:"lastAnalysis"`
	AnalysisInterval     int        `json:"analysisInterval"`
	SignalThreshold      int        `json:"signalThreshold"`
	AutoTrading          bool       `json:"autoTrading"`
	Version              string     `json:"version"`
	Uptime               string     `json:"uptime"`
	ActiveSymbols        []string   `json:"activeSymbols"`
	LastSignal           SignalType `json:"lastSignal"`
	LastSignalConfidence int        `json:"lastSignalConfidence"`
}

// Prediction is the fixed demo payload of the bnb-trading endpoint.
type Prediction struct {
	Timestamp       time.Time            `json:"timestamp"`
	CurrentPrice    float64              `json:"currentPrice"`
	Prediction      SignalType           `json:"prediction"`
	Confidence      float64              `json:"confidence"`
	Indicators      PredictionIndicators `json:"indicators"`
	NextPriceTarget float64              `json:"nextPriceTarget"`
	StopLoss        float64              `json:"stopLoss"`
}

// PredictionIndicators qualitative readings behind a prediction.
type PredictionIndicators struct {
	RSI            int    `json:"rsi"`
	MACD           string `json:"macd"`
	MovingAverages string `json:"movingAverages"`
	Volume         string `json:"volume"`
}

// OrderDetails echo of a simulated order.
type OrderDetails struct {
	OrderID   string    `json:"orderId"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"`
	Notional  string    `json:"notional"`
	Timestamp time.Time `json:"timestamp"`
}
