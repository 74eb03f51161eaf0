package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"bnb-dashboard/pkg/types"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix = "dashboard:price:"
	redisRetention = 10 * time.Minute
	// a sample further than this from the requested time does not count as "around" it
	maxLookupSkew = 2 * time.Minute
)

// PriceWindow keeps the samples of one symbol younger than maxAge, oldest first.
type PriceWindow struct {
	data   []types.PriceDataPoint
	maxAge time.Duration
	mutex  sync.RWMutex
}

// NewPriceWindow keeps samples up to maxAge old.
func NewPriceWindow(maxAge time.Duration) *PriceWindow {
	return &PriceWindow{
		data:   make([]types.PriceDataPoint, 0, 16),
		maxAge: maxAge,
	}
}

// Add appends point and evicts samples older than the window relative to it.
func (w *PriceWindow) Add(point types.PriceDataPoint) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.data = append(w.data, point)

	cutoff := point.Timestamp.Add(-w.maxAge - maxLookupSkew)
	drop := 0
	for drop < len(w.data)-1 && w.data[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		w.data = append(w.data[:0], w.data[drop:]...)
	}
}

func (w *PriceWindow) Latest() (types.PriceDataPoint, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if len(w.data) == 0 {
		return types.PriceDataPoint{}, false
	}
	return w.data[len(w.data)-1], true
}

// Around returns the sample closest to target. It needs at least two samples
// and a match within maxLookupSkew.
func (w *PriceWindow) Around(target time.Time) (types.PriceDataPoint, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if len(w.data) < 2 {
		return types.PriceDataPoint{}, false
	}

	best := -1
	minDiff := time.Duration(math.MaxInt64)
	for i := range w.data {
		diff := target.Sub(w.data[i].Timestamp)
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff = diff
			best = i
		}
	}

	if minDiff > maxLookupSkew {
		return types.PriceDataPoint{}, false
	}
	return w.data[best], true
}

// StateManager is the in-memory price history with an optional Redis backup.
type StateManager struct {
	windows     map[string]*PriceWindow
	mutex       sync.RWMutex
	windowSize  time.Duration
	redisClient *redis.Client
	useRedis    bool
	now         func() time.Time
}

// NewStateManager connects to Redis when configured and falls back to pure
// memory when it is absent or unreachable.
func NewStateManager(redisConfig types.RedisConfig, windowSize time.Duration) *StateManager {
	if windowSize <= 0 {
		windowSize = 5 * time.Minute
	}
	sm := &StateManager{
		windows:    make(map[string]*PriceWindow),
		windowSize: windowSize,
		now:        time.Now,
	}

	if redisConfig.URL == "" {
		zap.L().Info("🔧 Redis not configured, price state kept in memory")
		return sm
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisConfig.URL,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("⚠️ Redis unreachable, price state kept in memory", zap.String("addr", redisConfig.URL), zap.Error(err))
		_ = client.Close()
		return sm
	}

	zap.L().Info("✅ Redis connected", zap.String("addr", redisConfig.URL))
	sm.redisClient = client
	sm.useRedis = true
	return sm
}

// Store records a price sample and backs it up to Redis asynchronously.
func (sm *StateManager) Store(symbol string, price float64, timestamp time.Time) {
	sm.mutex.Lock()
	w := sm.windows[symbol]
	if w == nil {
		w = NewPriceWindow(sm.windowSize)
		sm.windows[symbol] = w
	}
	sm.mutex.Unlock()

	point := types.PriceDataPoint{Price: price, Timestamp: timestamp}
	w.Add(point)

	if sm.useRedis {
		go sm.backupToRedis(symbol, point)
	}
}

func redisKey(symbol string) string {
	return redisKeyPrefix + symbol
}

func (sm *StateManager) backupToRedis(symbol string, point types.PriceDataPoint) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	value, err := json.Marshal(point)
	if err != nil {
		zap.L().Error("marshal price sample", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	key := redisKey(symbol)
	cutoff := float64(sm.now().Add(-redisRetention).Unix())

	// sorted set scored by unix seconds
	pipe := sm.redisClient.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(point.Timestamp.Unix()), Member: value})
	pipe.Expire(ctx, key, redisRetention)
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%.0f", cutoff))
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("Redis backup failed", zap.String("symbol", symbol), zap.Error(err))
	}
}

// GetPriceData returns the latest sample and the one around the window start.
func (sm *StateManager) GetPriceData(symbol string) (current, past *types.PriceDataPoint) {
	sm.mutex.RLock()
	w := sm.windows[symbol]
	sm.mutex.RUnlock()
	if w == nil {
		return nil, nil
	}

	latest, ok := w.Latest()
	if !ok {
		return nil, nil
	}
	current = &latest

	if p, ok := w.Around(latest.Timestamp.Add(-sm.windowSize)); ok && p.Timestamp.Before(latest.Timestamp) {
		past = &p
	}
	return current, past
}

// Latest returns the newest in-memory sample for symbol.
func (sm *StateManager) Latest(symbol string) (types.PriceDataPoint, bool) {
	sm.mutex.RLock()
	w := sm.windows[symbol]
	sm.mutex.RUnlock()
	if w == nil {
		return types.PriceDataPoint{}, false
	}
	return w.Latest()
}

// LatestFromRedis reads the newest backed-up sample, used after a restart
// before memory has warmed up.
func (sm *StateManager) LatestFromRedis(ctx context.Context, symbol string) (types.PriceDataPoint, bool) {
	if !sm.useRedis {
		return types.PriceDataPoint{}, false
	}

	members, err := sm.redisClient.ZRevRange(ctx, redisKey(symbol), 0, 0).Result()
	if err != nil || len(members) == 0 {
		if err != nil {
			zap.L().Warn("Redis read failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return types.PriceDataPoint{}, false
	}

	var point types.PriceDataPoint
	if err := json.Unmarshal([]byte(members[0]), &point); err != nil {
		zap.L().Warn("decode Redis price sample", zap.String("symbol", symbol), zap.Error(err))
		return types.PriceDataPoint{}, false
	}
	return point, true
}

// Recent returns the newest sample from memory, falling back to Redis.
func (sm *StateManager) Recent(ctx context.Context, symbol string) (types.PriceDataPoint, bool) {
	if p, ok := sm.Latest(symbol); ok {
		return p, true
	}
	return sm.LatestFromRedis(ctx, symbol)
}

func (sm *StateManager) GetAllSymbols() []string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	symbols := make([]string, 0, len(sm.windows))
	for symbol := range sm.windows {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Stats summarises the state for the watcher's log line.
func (sm *StateManager) Stats(ctx context.Context) map[string]interface{} {
	sm.mutex.RLock()
	memorySymbols := len(sm.windows)
	sm.mutex.RUnlock()

	stats := map[string]interface{}{
		"redis_enabled":  sm.useRedis,
		"memory_symbols": memorySymbols,
	}

	if sm.useRedis {
		var cursor uint64
		count := 0
		for {
			keys, next, err := sm.redisClient.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
			if err != nil {
				stats["redis_error"] = err.Error()
				break
			}
			count += len(keys)
			if cursor = next; cursor == 0 {
				stats["redis_keys"] = count
				break
			}
		}
	}

	return stats
}

// RedisEnabled reports whether samples are being backed up.
func (sm *StateManager) RedisEnabled() bool {
	return sm.useRedis
}

// Health pings the Redis backup.
func (sm *StateManager) Health(ctx context.Context) error {
	if !sm.useRedis {
		return errors.New("redis backup disabled")
	}
	return sm.redisClient.Ping(ctx).Err()
}

func (sm *StateManager) Close() error {
	if sm.redisClient == nil {
		return nil
	}
	return sm.redisClient.Close()
}
