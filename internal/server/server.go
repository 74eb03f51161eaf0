package server

import (
	"context"
	"sync"
	"time"

	"bnb-dashboard/internal/notifier"
	"bnb-dashboard/internal/scheduler"
	"bnb-dashboard/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MarketService serves prices and candles. It never fails.
type MarketService interface {
	Price(ctx context.Context, symbol string) types.PricePoint
	Historical(ctx context.Context, symbol string, interval types.Interval, limit int) []types.Candle
	Mode() string
}

// DemoSource produces the signal table and the bot status.
type DemoSource interface {
	Signals(count int, forced types.SignalType) []types.Signal
	BotStatus(cfg types.BotConfig) types.BotStatus
}

// StatsSource returns the start-up trading statistics.
type StatsSource interface {
	Get() types.TradingStats
}

// BotRunner switches the analysis loop on and off.
type BotRunner interface {
	Start() bool
	Stop() bool
	Running() bool
}

// HealthChecker reports whether a backing store answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Market   MarketService
	Demo     DemoSource
	Stats    StatsSource
	Notifier notifier.Interface
	Runner   BotRunner
	// Stores are reported by /healthz under their map key.
	Stores map[string]HealthChecker
	Bot    types.BotConfig
	Server types.ServerConfig
}

// Server holds the dashboard API handlers.
type Server struct {
	market      MarketService
	demo        DemoSource
	stats       StatsSource
	notifier    notifier.Interface
	runner      BotRunner
	stores      map[string]HealthChecker
	bot         types.BotConfig
	toggleDelay time.Duration
	prediction  types.Prediction
	now         func() time.Time
	newOrderID  func() string

	// notifications still in flight
	pending sync.WaitGroup
}

// New builds the API. A missing notifier logs instead and a missing runner
// only tracks the running flag.
func New(deps Deps) *Server {
	s := &Server{
		market:      deps.Market,
		demo:        deps.Demo,
		stats:       deps.Stats,
		notifier:    deps.Notifier,
		runner:      deps.Runner,
		stores:      deps.Stores,
		bot:         deps.Bot,
		toggleDelay: deps.Server.ToggleDelay,
		now:         time.Now,
		newOrderID:  uuid.NewString,
	}
	if s.notifier == nil {
		s.notifier = notifier.NewLogNotifier()
	}
	if s.runner == nil {
		s.runner = scheduler.NewController(context.Background(), nil)
	}
	s.prediction = demoPrediction(s.now())
	return s
}

// demoPrediction is the fixed payload of GET /api/bnb-trading.
func demoPrediction(at time.Time) types.Prediction {
	return types.Prediction{
		Timestamp:    at,
		CurrentPrice: 389.45,
		Prediction:   types.SignalBuy,
		Confidence:   0.87,
		Indicators: types.PredictionIndicators{
			RSI:            42,
			MACD:           "bullish",
			MovingAverages: "uptrend",
			Volume:         "increasing",
		},
		NextPriceTarget: 398.2,
		StopLoss:        384.6,
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), requestLogger(), recovery(), cors())

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/price", s.getPrice)
		api.GET("/historical", s.getHistorical)
		api.GET("/signals", s.getSignals)
		api.GET("/trading-stats", s.getTradingStats)
		api.GET("/bot-status", s.getBotStatus)
		api.POST("/start", s.startBot)
		api.POST("/stop", s.stopBot)
		api.POST("/toggle-auto-trading", s.toggleAutoTrading)
		api.GET("/bnb-trading", s.getPrediction)
		api.POST("/bnb-trading", s.placeOrder)
		api.POST("/telegram-notify", s.telegramNotify)
	}
	return r
}

// Wait blocks until notifications sent in the background are delivered.
func (s *Server) Wait() {
	s.pending.Wait()
}
