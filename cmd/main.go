package main

import (
	"log"

	"bnb-dashboard/pkg/config"
	"bnb-dashboard/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config: ", err)
	}

	l, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatal("init logger: ", err)
	}
	defer l.Sync()

	zap.L().Info("config loaded",
		zap.String("market_mode", cfg.Market.Mode),
		zap.Int("analysis_interval", cfg.Bot.AnalysisInterval),
		zap.Int("signal_threshold", cfg.Bot.SignalThreshold),
		zap.Bool("auto_trading", cfg.Bot.AutoTrading))

	app, err := NewApp(cfg)
	if err != nil {
		zap.L().Fatal("build app", zap.Error(err))
	}

	app.Start()
	app.WaitForShutdown()
	app.Stop()
}
