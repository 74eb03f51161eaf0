package market

import (
	"context"
	"strconv"
	"time"

	"bnb-dashboard/pkg/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LiveSource is the exchange client.
type LiveSource interface {
	Ticker(ctx context.Context, symbol string) (types.PricePoint, error)
	Candles(ctx context.Context, symbol string, interval types.Interval, limit int) ([]types.Candle, error)
}

// MockSource is the synthetic generator every read falls back to.
type MockSource interface {
	Price(symbol string) types.PricePoint
	Historical(symbol string, interval types.Interval, count int) []types.Candle
}

// PriceCache stores live samples and serves the last known one.
type PriceCache interface {
	Store(symbol string, price float64, timestamp time.Time)
	Recent(ctx context.Context, symbol string) (types.PriceDataPoint, bool)
}

// CandleCache stores live candles and serves them when the exchange is down.
type CandleCache interface {
	SaveCandles(ctx context.Context, symbol, interval string, candles []types.Candle) error
	RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error)
}

// Service answers price and candle reads in demo or live mode. It never fails:
// live errors degrade to cached values and finally to mock data.
type Service struct {
	mode    string
	live    LiveSource
	mock    MockSource
	prices  PriceCache
	candles CandleCache

	timeout    time.Duration
	backoff    time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithLiveSource sets the exchange client used in live mode.
func WithLiveSource(src LiveSource) Option {
	return func(s *Service) { s.live = src }
}

// WithPriceCache stores live prices and serves them when the exchange fails.
func WithPriceCache(c PriceCache) Option {
	return func(s *Service) { s.prices = c }
}

// WithCandleCache stores live candles and replays them when the exchange fails.
func WithCandleCache(c CandleCache) Option {
	return func(s *Service) { s.candles = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a service. Live mode without a live source behaves as demo.
func NewService(cfg types.MarketConfig, mock MockSource, opts ...Option) *Service {
	s := &Service{
		mode:       cfg.Mode,
		mock:       mock,
		timeout:    cfg.LiveTimeout,
		backoff:    cfg.RetryBackoff,
		staleAfter: cfg.StaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	if s.staleAfter <= 0 {
		s.staleAfter = 2 * time.Minute
	}
	if s.mode != types.MarketModeLive || s.live == nil {
		s.mode = types.MarketModeDemo
	}
	return s
}

// Mode is demo or live.
func (s *Service) Mode() string {
	return s.mode
}

// Price returns the current quote for symbol.
func (s *Service) Price(ctx context.Context, symbol string) types.PricePoint {
	if s.mode != types.MarketModeLive {
		return s.mock.Price(symbol)
	}

	var point types.PricePoint
	err := s.withRetry(ctx, "ticker", symbol, func(ctx context.Context) error {
		p, err := s.live.Ticker(ctx, symbol)
		if err == nil {
			point = p
		}
		return err
	})
	if err == nil {
		s.remember(symbol, point)
		return point
	}

	if cached, ok := s.cachedPrice(ctx, symbol); ok {
		return cached
	}

	zap.L().Warn("⚠️ serving mock price", zap.String("symbol", symbol))
	return s.mock.Price(symbol)
}

func (s *Service) remember(symbol string, point types.PricePoint) {
	if s.prices == nil {
		return
	}
	price, err := strconv.ParseFloat(point.Price, 64)
	if err != nil {
		return
	}
	s.prices.Store(symbol, price, point.LastUpdate)
}

func (s *Service) cachedPrice(ctx context.Context, symbol string) (types.PricePoint, bool) {
	if s.prices == nil {
		return types.PricePoint{}, false
	}

	sample, ok := s.prices.Recent(ctx, symbol)
	if !ok || s.now().Sub(sample.Timestamp) > s.staleAfter {
		return types.PricePoint{}, false
	}

	return types.PricePoint{
		Symbol:     symbol,
		Price:      decimal.NewFromFloat(sample.Price).StringFixed(2),
		LastUpdate: sample.Timestamp,
		Source:     types.SourceCache,
	}, true
}

// Historical returns limit candles for symbol, oldest first.
func (s *Service) Historical(ctx context.Context, symbol string, interval types.Interval, limit int) []types.Candle {
	if s.mode != types.MarketModeLive {
		return s.mock.Historical(symbol, interval, limit)
	}

	var candles []types.Candle
	err := s.withRetry(ctx, "candles", symbol, func(ctx context.Context) error {
		c, err := s.live.Candles(ctx, symbol, interval, limit)
		if err == nil {
			candles = c
		}
		return err
	})
	if err == nil {
		if s.candles != nil {
			if err := s.candles.SaveCandles(ctx, symbol, interval.Token, candles); err != nil {
				zap.L().Warn("cache candles", zap.String("symbol", symbol), zap.Error(err))
			}
		}
		return candles
	}

	if s.candles != nil {
		cached, err := s.candles.RecentCandles(ctx, symbol, interval.Token, limit)
		if err == nil && len(cached) >= limit {
			zap.L().Info("serving cached candles", zap.String("symbol", symbol), zap.String("interval", interval.Token))
			return cached
		}
		if err != nil {
			zap.L().Warn("read cached candles", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	zap.L().Warn("⚠️ serving mock candles", zap.String("symbol", symbol), zap.String("interval", interval.Token))
	return s.mock.Historical(symbol, interval, limit)
}

// withRetry runs call with a per-attempt timeout and retries once after the backoff.
func (s *Service) withRetry(ctx context.Context, op, symbol string, call func(ctx context.Context) error) error {
	const attempts = 2

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			zap.L().Info("🔄 retrying exchange call", zap.String("op", op), zap.String("symbol", symbol), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		lastErr = call(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	zap.L().Warn("exchange call failed", zap.String("op", op), zap.String("symbol", symbol), zap.Error(lastErr))
	return lastErr
}
