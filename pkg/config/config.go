package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"bnb-dashboard/pkg/types"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps the dashboard's historical environment variables onto config keys.
var envBindings = map[string]string{
	"bot.analysis_interval": "ANALYSIS_INTERVAL",
	"bot.signal_threshold":  "SIGNAL_THRESHOLD",
	"bot.auto_trading":      "ENABLE_AUTO_TRADING",
	"telegram.bot_token":    "TELEGRAM_BOT_TOKEN",
	"telegram.chat_id":      "TELEGRAM_CHAT_ID",
	"market.mode":           "MARKET_MODE",
}

// Load reads .env, then config.local.yaml or config.yaml, then environment overrides.
func Load(paths ...string) (*types.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// config.local.yaml wins over config.yaml
	v.SetConfigName("config.local")
	if err := v.ReadInConfig(); err != nil {
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// PORT is the bare port number the dashboard was historically deployed with.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file_path", "logs")
	v.SetDefault("log.max_size", 200)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.compress", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.toggle_delay", 500*time.Millisecond)

	v.SetDefault("bot.analysis_interval", 60)
	v.SetDefault("bot.signal_threshold", 65)
	v.SetDefault("bot.auto_trading", false)
	v.SetDefault("bot.auto_start", true)
	v.SetDefault("bot.version", "1.0.0")
	v.SetDefault("bot.active_symbols", []string{"BNBUSDT", "BTCUSDT"})

	v.SetDefault("market.mode", types.MarketModeDemo)
	v.SetDefault("market.base_url", "https://www.okx.com")
	v.SetDefault("market.live_timeout", 5*time.Second)
	v.SetDefault("market.retry_backoff", 500*time.Millisecond)
	v.SetDefault("market.stale_after", 2*time.Minute)

	v.SetDefault("demo.seed", 0)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")

	v.SetDefault("alert.threshold", 3.0)
	v.SetDefault("alert.monitor_period", 5*time.Minute)
	v.SetDefault("fetch.interval", time.Minute)
	v.SetDefault("network.proxy", "")

	v.SetDefault("database.mysql.host", "")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.username", "root")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "bnb_dashboard")
	v.SetDefault("database.mysql.max_idle_conns", 5)
	v.SetDefault("database.mysql.max_open_conns", 20)
}

func validate(cfg *types.Config) error {
	switch cfg.Market.Mode {
	case types.MarketModeDemo, types.MarketModeLive:
	default:
		return fmt.Errorf("market.mode must be %q or %q, got %q", types.MarketModeDemo, types.MarketModeLive, cfg.Market.Mode)
	}
	if cfg.Bot.AnalysisInterval <= 0 {
		return fmt.Errorf("bot.analysis_interval must be positive, got %d", cfg.Bot.AnalysisInterval)
	}
	if cfg.Bot.SignalThreshold < 0 || cfg.Bot.SignalThreshold > 100 {
		return fmt.Errorf("bot.signal_threshold must be within 0-100, got %d", cfg.Bot.SignalThreshold)
	}
	return nil
}
