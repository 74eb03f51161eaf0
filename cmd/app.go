package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bnb-dashboard/internal/analyzer"
	"bnb-dashboard/internal/database"
	"bnb-dashboard/internal/demo"
	"bnb-dashboard/internal/fetcher"
	"bnb-dashboard/internal/market"
	"bnb-dashboard/internal/notifier"
	"bnb-dashboard/internal/random"
	"bnb-dashboard/internal/scheduler"
	"bnb-dashboard/internal/server"
	"bnb-dashboard/internal/stats"
	"bnb-dashboard/internal/storage"
	"bnb-dashboard/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// candleRetention is how long cached exchange candles are kept.
const candleRetention = 90 * 24 * time.Hour

// App wires the dashboard components and owns their lifecycle.
type App struct {
	config *types.Config
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	httpServer *http.Server
	api        *server.Server
	bot        *scheduler.Controller
	market     *market.Service
	notifier   notifier.Interface
	state      *storage.StateManager
	db         *database.Manager
}

// NewApp builds every component. External stores are optional: a missing or
// unreachable Redis or MySQL only narrows the live-mode fallbacks.
func NewApp(config *types.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	app := &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		group:  group,
	}

	gen := demo.NewGenerator(random.New(config.Demo.Seed))
	app.notifier = notifier.New(config.Telegram)

	var opts []market.Option
	if config.Market.IsLive() {
		app.state = storage.NewStateManager(config.Redis, config.Alert.MonitorPeriod)
		opts = append(opts,
			market.WithLiveSource(fetcher.NewOKXClient(config.Market.BaseURL, config.Network)),
			market.WithPriceCache(app.state),
		)

		if config.Database.MySQL.Enabled() {
			db, err := database.NewManager(config.Database.MySQL)
			if err != nil {
				zap.L().Warn("⚠️ MySQL unavailable, candle cache disabled", zap.Error(err))
			} else {
				app.db = db
				opts = append(opts, market.WithCandleCache(db))
			}
		}
	}
	app.market = market.NewService(config.Market, gen, opts...)
	app.bot = scheduler.NewController(ctx, app.analysisLoop())

	stores := map[string]server.HealthChecker{}
	if app.db != nil {
		stores["mysql"] = app.db
	}
	if app.state != nil && app.state.RedisEnabled() {
		stores["redis"] = app.state
	}

	app.api = server.New(server.Deps{
		Market:   app.market,
		Demo:     gen,
		Stats:    stats.NewSnapshot(gen),
		Notifier: app.notifier,
		Runner:   app.bot,
		Stores:   stores,
		Bot:      config.Bot,
		Server:   config.Server,
	})

	if config.Server.Mode != "" {
		gin.SetMode(config.Server.Mode)
	}
	app.httpServer = &http.Server{
		Addr:         config.Server.Addr,
		Handler:      app.api.Router(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	return app, nil
}

// Start launches the HTTP server and, when bot.auto_start is set, the analysis loop.
func (app *App) Start() {
	zap.L().Info("🚀 BNB dashboard starting...",
		zap.String("mode", app.market.Mode()),
		zap.String("addr", app.config.Server.Addr))

	app.group.Go(func() error {
		zap.L().Info("🌐 HTTP server listening", zap.String("addr", app.httpServer.Addr))
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if app.config.Bot.AutoStart {
		app.bot.Start()
	}

	if app.db != nil {
		app.group.Go(func() error {
			app.purgeCandles()
			return nil
		})
	}

	app.group.Go(func() error {
		_ = app.notifier.Notify(app.ctx, "🚀 BNB trading dashboard started ("+app.market.Mode()+" mode)")
		return nil
	})

	zap.L().Info("✅ BNB dashboard started")
}

// analysisLoop is the price watcher behind /api/start and /api/stop. It only
// exists in live mode with a positive alert threshold; otherwise the bot
// tracks its running flag alone.
func (app *App) analysisLoop() func(ctx context.Context) {
	if app.market.Mode() != types.MarketModeLive || app.config.Alert.Threshold <= 0 {
		return nil
	}
	engine := analyzer.NewAnalysisEngine(app.state, app.notifier, app.config.Alert)
	watcher := scheduler.NewScheduler(app.market, engine, app.state, app.config.Bot.ActiveSymbols, app.config.Fetch.Interval)
	return watcher.Start
}

// purgeCandles trims the candle cache once a day.
func (app *App) purgeCandles() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		n, err := app.db.PurgeBefore(app.ctx, time.Now().Add(-candleRetention))
		if err != nil {
			zap.L().Warn("purge candle cache", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("🧹 purged cached candles", zap.Int64("rows", n))
		}

		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop shuts the HTTP server down and waits for background work.
func (app *App) Stop() {
	zap.L().Info("🛑 shutting down...")

	timeout := app.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("⚠️ HTTP shutdown", zap.Error(err))
	}
	app.bot.Stop()
	app.cancel()

	done := make(chan error, 1)
	go func() {
		app.api.Wait()
		done <- app.group.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			zap.L().Error("background task failed", zap.Error(err))
		}
		zap.L().Info("✅ BNB dashboard stopped")
	case <-shutdownCtx.Done():
		zap.L().Warn("⚠️ shutdown timed out")
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			zap.L().Warn("close MySQL", zap.Error(err))
		}
	}
	if app.state != nil {
		if err := app.state.Close(); err != nil {
			zap.L().Warn("close Redis", zap.Error(err))
		}
	}
}

// WaitForShutdown blocks until a signal arrives or a background task fails.
func (app *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		zap.L().Info("received signal", zap.String("signal", sig.String()))
	case <-app.ctx.Done():
		zap.L().Warn("background task exited")
	}
}
