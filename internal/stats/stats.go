package stats

import (
	"sync"

	"bnb-dashboard/pkg/types"
)

// Source draws a trading statistics summary.
type Source interface {
	TradingStats() types.TradingStats
}

// Snapshot holds the trading statistics computed once at start-up and served
// unchanged for the life of the process.
type Snapshot struct {
	once  sync.Once
	src   Source
	stats types.TradingStats
}

// NewSnapshot draws the statistics immediately.
func NewSnapshot(src Source) *Snapshot {
	s := &Snapshot{src: src}
	s.Get()
	return s
}

// Get returns the snapshot. Every call returns the same values.
func (s *Snapshot) Get() types.TradingStats {
	s.once.Do(func() {
		s.stats = s.src.TradingStats()
	})
	return s.stats
}
