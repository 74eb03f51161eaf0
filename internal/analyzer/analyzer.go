package analyzer

import (
	"context"
	"math"
	"sync"
	"time"

	"bnb-dashboard/internal/notifier"
	"bnb-dashboard/pkg/types"

	"go.uber.org/zap"
)

// alertCooldown suppresses repeat alerts for the same symbol.
const alertCooldown = 5 * time.Minute

// PriceHistory is the view of the price state the engine reads.
type PriceHistory interface {
	GetAllSymbols() []string
	GetPriceData(symbol string) (current, past *types.PriceDataPoint)
}

// AnalysisEngine raises alerts when a symbol moved more than threshold percent
// over the monitor period.
type AnalysisEngine struct {
	history       PriceHistory
	notifier      notifier.Interface
	threshold     float64
	monitorPeriod time.Duration
	alertHistory  map[string]time.Time
	mutex         sync.Mutex
	now           func() time.Time
}

// NewAnalysisEngine compares prices across alertConfig.MonitorPeriod.
func NewAnalysisEngine(history PriceHistory, notifyService notifier.Interface, alertConfig types.AlertConfig) *AnalysisEngine {
	return &AnalysisEngine{
		history:       history,
		notifier:      notifyService,
		threshold:     alertConfig.Threshold,
		monitorPeriod: alertConfig.MonitorPeriod,
		alertHistory:  make(map[string]time.Time),
		now:           time.Now,
	}
}

// AnalyzeAll checks every tracked symbol and sends the alerts as one message.
// It returns the alerts that were raised.
func (ae *AnalysisEngine) AnalyzeAll(ctx context.Context) []*types.AlertData {
	symbols := ae.history.GetAllSymbols()
	if len(symbols) == 0 {
		return nil
	}

	alerts := make([]*types.AlertData, 0)
	for _, symbol := range symbols {
		if alert := ae.analyzeSymbol(symbol); alert != nil {
			alerts = append(alerts, alert)
		}
	}

	if len(alerts) == 0 {
		zap.L().Debug("✅ analysis done, no significant moves", zap.Int("symbols", len(symbols)))
		return nil
	}

	if err := ae.notifier.Notify(ctx, notifier.FormatBatchAlerts(alerts)); err != nil {
		zap.L().Error("❌ send alerts", zap.Int("alerts", len(alerts)), zap.Error(err))
	}
	zap.L().Info("✅ analysis done", zap.Int("symbols", len(symbols)), zap.Int("alerts", len(alerts)))
	return alerts
}

func (ae *AnalysisEngine) analyzeSymbol(symbol string) *types.AlertData {
	current, past := ae.history.GetPriceData(symbol)
	if current == nil || past == nil || past.Price == 0 {
		return nil
	}

	changePercent := (current.Price - past.Price) / past.Price * 100
	if math.Abs(changePercent) <= ae.threshold {
		return nil
	}
	if !ae.claim(symbol) {
		return nil
	}

	return &types.AlertData{
		Symbol:        symbol,
		CurrentPrice:  current.Price,
		PastPrice:     past.Price,
		ChangePercent: changePercent,
		AlertTime:     ae.now(),
		MonitorPeriod: ae.monitorPeriod,
	}
}

// claim records an alert for symbol unless one was raised within the cooldown.
func (ae *AnalysisEngine) claim(symbol string) bool {
	ae.mutex.Lock()
	defer ae.mutex.Unlock()

	now := ae.now()
	if last, ok := ae.alertHistory[symbol]; ok && now.Sub(last) <= alertCooldown {
		return false
	}
	ae.alertHistory[symbol] = now

	cutoff := now.Add(-time.Hour)
	for sym, at := range ae.alertHistory {
		if at.Before(cutoff) {
			delete(ae.alertHistory, sym)
		}
	}
	return true
}
