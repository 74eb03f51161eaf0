package scheduler

import (
	"context"
	"time"

	"bnb-dashboard/pkg/types"

	"go.uber.org/zap"
)

// PriceSampler fetches a price; in live mode the sample lands in the price state.
type PriceSampler interface {
	Price(ctx context.Context, symbol string) types.PricePoint
}

// Analyzer inspects the price state and raises alerts.
type Analyzer interface {
	AnalyzeAll(ctx context.Context) []*types.AlertData
}

// StatsReporter describes the price state for the per-round log line.
type StatsReporter interface {
	Stats(ctx context.Context) map[string]interface{}
}

// Scheduler drives the price watcher: sample every symbol, then analyze.
type Scheduler struct {
	sampler  PriceSampler
	analyzer Analyzer
	state    StatsReporter
	symbols  []string
	interval time.Duration
}

// NewScheduler samples symbols every interval, one minute when unset.
func NewScheduler(sampler PriceSampler, analyzer Analyzer, state StatsReporter, symbols []string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		sampler:  sampler,
		analyzer: analyzer,
		state:    state,
		symbols:  append([]string(nil), symbols...),
		interval: interval,
	}
}

// Start runs a round immediately and then every interval until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	zap.L().Info("🚀 price watcher started",
		zap.Strings("symbols", s.symbols),
		zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("📴 price watcher stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce samples every symbol and runs the analyzer.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, symbol := range s.symbols {
		if ctx.Err() != nil {
			return
		}
		p := s.sampler.Price(ctx, symbol)
		zap.L().Debug("sampled price", zap.String("symbol", symbol), zap.String("price", p.Price), zap.String("source", p.Source))
	}

	if s.state != nil {
		stats := s.state.Stats(ctx)
		zap.L().Debug("📊 price state", zap.Any("stats", stats))
	}

	s.analyzer.AnalyzeAll(ctx)
}
