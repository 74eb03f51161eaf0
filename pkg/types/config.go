package types

import "time"

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Bot      BotConfig      `mapstructure:"bot"`
	Market   MarketConfig   `mapstructure:"market"`
	Demo     DemoConfig     `mapstructure:"demo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Alert    AlertConfig    `mapstructure:"alert"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Network  NetworkConfig  `mapstructure:"network"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LogConfig log output and rotation settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // console or json
	FilePath   string `mapstructure:"file_path"`   // log directory, empty disables the file sink
	MaxSize    int    `mapstructure:"max_size"`    // MB before rotation
	MaxAge     int    `mapstructure:"max_age"`     // days
	MaxBackups int    `mapstructure:"max_backups"` // rotated files kept
	Compress   bool   `mapstructure:"compress"`
}

// ServerConfig HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ToggleDelay     time.Duration `mapstructure:"toggle_delay"` // artificial latency of the auto-trading toggle
}

// BotConfig values reported by the bot status endpoint.
type BotConfig struct {
	AnalysisInterval int      `mapstructure:"analysis_interval"` // minutes
	SignalThreshold  int      `mapstructure:"signal_threshold"`  // percent
	AutoTrading      bool     `mapstructure:"auto_trading"`
	AutoStart        bool     `mapstructure:"auto_start"` // start the analysis loop with the API
	Version          string   `mapstructure:"version"`
	ActiveSymbols    []string `mapstructure:"active_symbols"`
}

// MarketConfig selects where prices and candles come from.
type MarketConfig struct {
	Mode         string        `mapstructure:"mode"` // demo or live
	BaseURL      string        `mapstructure:"base_url"`
	LiveTimeout  time.Duration `mapstructure:"live_timeout"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	StaleAfter   time.Duration `mapstructure:"stale_after"`
}

// DemoConfig synthetic data settings.
type DemoConfig struct {
	Seed int64 `mapstructure:"seed"` // 0 seeds from the clock
}

// RedisConfig optional Redis backup for the price state.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelegramConfig Telegram Bot API settings. An empty token keeps notifications in the log.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIURL   string `mapstructure:"api_url"`
}

// AlertConfig price-move alert settings.
type AlertConfig struct {
	Threshold     float64       `mapstructure:"threshold"`      // percent, 0 disables the price watcher
	MonitorPeriod time.Duration `mapstructure:"monitor_period"` // window the change is measured over
}

// FetchConfig sampling cadence of the price watcher.
type FetchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// NetworkConfig outbound HTTP settings.
type NetworkConfig struct {
	Proxy string `mapstructure:"proxy"` // HTTP proxy, e.g. http://127.0.0.1:7890
}

// DatabaseConfig optional candle cache.
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
}

// MySQLConfig MySQL connection settings.
type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// Enabled reports whether a MySQL host was configured.
func (c MySQLConfig) Enabled() bool {
	return c.Host != ""
}

// IsLive reports whether the market service should call the exchange.
func (c MarketConfig) IsLive() bool {
	return c.Mode == MarketModeLive
}

const (
	MarketModeDemo = "demo"
	MarketModeLive = "live"
)
