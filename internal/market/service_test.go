package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bnb-dashboard/internal/demo"
	"bnb-dashboard/internal/fetcher"
	"bnb-dashboard/internal/random"
	"bnb-dashboard/internal/storage"
	"bnb-dashboard/pkg/types"
)

type fakeLive struct {
	mu        sync.Mutex
	calls     int
	failFirst int // calls that fail before succeeding, -1 fails forever
	candles   []types.Candle
}

func (f *fakeLive) attempt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFirst < 0 || f.calls <= f.failFirst {
		return errors.New("exchange down")
	}
	return nil
}

func (f *fakeLive) Ticker(ctx context.Context, symbol string) (types.PricePoint, error) {
	if err := f.attempt(); err != nil {
		return types.PricePoint{}, err
	}
	return types.PricePoint{Symbol: symbol, Price: "585.10", LastUpdate: time.Now(), Source: types.SourceOKX}, nil
}

func (f *fakeLive) Candles(ctx context.Context, symbol string, interval types.Interval, limit int) ([]types.Candle, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	return f.candles, nil
}

type fakeCandleCache struct {
	saved map[string][]types.Candle
}

func (c *fakeCandleCache) SaveCandles(ctx context.Context, symbol, interval string, candles []types.Candle) error {
	if c.saved == nil {
		c.saved = make(map[string][]types.Candle)
	}
	c.saved[symbol+"/"+interval] = candles
	return nil
}

func (c *fakeCandleCache) RecentCandles(ctx context.Context, symbol, interval string, limit int) ([]types.Candle, error) {
	rows := c.saved[symbol+"/"+interval]
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}

func liveConfig() types.MarketConfig {
	return types.MarketConfig{
		Mode:         types.MarketModeLive,
		LiveTimeout:  200 * time.Millisecond,
		RetryBackoff: time.Millisecond,
		StaleAfter:   2 * time.Minute,
	}
}

func mockGen() *demo.Generator {
	return demo.NewGenerator(random.New(42))
}

func hourly(t *testing.T) types.Interval {
	t.Helper()
	iv, err := types.ParseInterval("1h")
	if err != nil {
		t.Fatal(err)
	}
	return iv
}

// go test -v --run TestDemoModeUsesMock
func TestDemoModeUsesMock(t *testing.T) {
	live := &fakeLive{}
	svc := NewService(types.MarketConfig{Mode: types.MarketModeDemo}, mockGen(), WithLiveSource(live))

	if p := svc.Price(context.Background(), "BNBUSDT"); p.Source != types.SourceMock {
		t.Errorf("source = %q, want mock-data", p.Source)
	}
	if live.calls != 0 {
		t.Errorf("demo mode called the exchange %d times", live.calls)
	}
	if svc.Mode() != types.MarketModeDemo {
		t.Errorf("mode = %q", svc.Mode())
	}
}

// go test -v --run TestLiveModeWithoutSourceFallsBackToDemo
func TestLiveModeWithoutSourceFallsBackToDemo(t *testing.T) {
	svc := NewService(liveConfig(), mockGen())
	if svc.Mode() != types.MarketModeDemo {
		t.Errorf("mode = %q, want demo", svc.Mode())
	}
}

// go test -v --run TestLivePriceRetriesOnce
func TestLivePriceRetriesOnce(t *testing.T) {
	live := &fakeLive{failFirst: 1}
	prices := storage.NewStateManager(types.RedisConfig{}, 5*time.Minute)
	svc := NewService(liveConfig(), mockGen(), WithLiveSource(live), WithPriceCache(prices))

	p := svc.Price(context.Background(), "BNBUSDT")
	if p.Source != types.SourceOKX || p.Price != "585.10" {
		t.Fatalf("unexpected price %+v", p)
	}
	if live.calls != 2 {
		t.Errorf("calls = %d, want 2", live.calls)
	}
	if sample, ok := prices.Latest("BNBUSDT"); !ok || sample.Price != 585.1 {
		t.Errorf("live price not stored: %+v ok=%v", sample, ok)
	}
}

// go test -v --run TestLivePriceFallsBackToCache
func TestLivePriceFallsBackToCache(t *testing.T) {
	live := &fakeLive{failFirst: -1}
	prices := storage.NewStateManager(types.RedisConfig{}, 5*time.Minute)
	prices.Store("BNBUSDT", 581.456, time.Now().Add(-30*time.Second))

	svc := NewService(liveConfig(), mockGen(), WithLiveSource(live), WithPriceCache(prices))

	p := svc.Price(context.Background(), "BNBUSDT")
	if p.Source != types.SourceCache || p.Price != "581.46" {
		t.Fatalf("unexpected price %+v", p)
	}
	if live.calls != 2 {
		t.Errorf("calls = %d, want 2", live.calls)
	}
}

// go test -v --run TestLivePriceIgnoresStaleCache
func TestLivePriceIgnoresStaleCache(t *testing.T) {
	live := &fakeLive{failFirst: -1}
	prices := storage.NewStateManager(types.RedisConfig{}, 5*time.Minute)
	prices.Store("BNBUSDT", 581, time.Now().Add(-10*time.Minute))

	svc := NewService(liveConfig(), mockGen(), WithLiveSource(live), WithPriceCache(prices))

	if p := svc.Price(context.Background(), "BNBUSDT"); p.Source != types.SourceMock {
		t.Fatalf("expected mock fallback, got %+v", p)
	}
}

// go test -v --run TestLiveCandlesCachedAndReplayed
func TestLiveCandlesCachedAndReplayed(t *testing.T) {
	rows := []types.Candle{
		{Timestamp: 1, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: 2, Open: 1.5, High: 2, Low: 1, Close: 1.8, Volume: 12},
	}
	live := &fakeLive{candles: rows}
	cache := &fakeCandleCache{}
	svc := NewService(liveConfig(), mockGen(), WithLiveSource(live), WithCandleCache(cache))

	got := svc.Historical(context.Background(), "BNBUSDT", hourly(t), 2)
	if len(got) != 2 || got[1].Close != 1.8 {
		t.Fatalf("unexpected live candles %+v", got)
	}
	if len(cache.saved["BNBUSDT/1h"]) != 2 {
		t.Fatalf("candles not cached: %+v", cache.saved)
	}

	live.failFirst = -1
	got = svc.Historical(context.Background(), "BNBUSDT", hourly(t), 2)
	if len(got) != 2 || got[0].Timestamp != 1 {
		t.Fatalf("expected cached candles, got %+v", got)
	}

	// not enough cached rows
	got = svc.Historical(context.Background(), "BNBUSDT", hourly(t), 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 mock candles, got %d", len(got))
	}
}

// go test -v --run TestLiveAgainstUnreachableExchange
func TestLiveAgainstUnreachableExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := fetcher.NewOKXClient(srv.URL, types.NetworkConfig{})
	svc := NewService(liveConfig(), mockGen(), WithLiveSource(client))

	p := svc.Price(context.Background(), "BNBUSDT")
	if p.Source != types.SourceMock {
		t.Errorf("expected mock price, got %+v", p)
	}

	candles := svc.Historical(context.Background(), "BNBUSDT", hourly(t), 5)
	if len(candles) != 5 {
		t.Errorf("expected 5 mock candles, got %d", len(candles))
	}
}

// go test -v --run TestLiveCallTimesOut
func TestLiveCallTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	client := fetcher.NewOKXClient(srv.URL, types.NetworkConfig{})
	cfg := liveConfig()
	cfg.LiveTimeout = 50 * time.Millisecond
	svc := NewService(cfg, mockGen(), WithLiveSource(client))

	start := time.Now()
	p := svc.Price(context.Background(), "BNBUSDT")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("price took %v, expected the timeout to bound it", elapsed)
	}
	if p.Source != types.SourceMock {
		t.Errorf("expected mock price, got %+v", p)
	}
}
