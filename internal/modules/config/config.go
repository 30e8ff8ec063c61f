package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"signal_portal/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token             string `yaml:"token"`
		ChatID            int64  `yaml:"chat_id"`
		IncludeDisclaimer bool   `yaml:"include_disclaimer"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
	} `yaml:"service"`

	Exchange struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		// Requests per second against the candle endpoint, shared by all
		// tick workers.
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"exchange"`

	// Engine defaults
	TickInterval  time.Duration `yaml:"tick_interval"`
	StopGrace     time.Duration `yaml:"stop_grace"`
	MaxConcurrent int           `yaml:"max_concurrent"` // bounded fetch workers per tick
	CandleLimit   int           `yaml:"candle_limit"`   // bars fetched per pair

	// Fan-out defaults
	SubscriberBuffer int `yaml:"subscriber_buffer"`
	RecentCap        int `yaml:"recent_cap"`

	// When positive, the symbol list is replaced at startup with the top N
	// USDT pairs by 24h quote volume.
	WatchTopN int `yaml:"watch_top_n"`

	// Watch grid: every active strategy runs on symbols x timeframes.
	Symbols    []string `yaml:"symbols"`
	Timeframes []string `yaml:"timeframes"`
	Strategies []string `yaml:"strategies"`

	// Per-strategy parameters
	Strategy models.StrategyConfig `yaml:"strategy"`
}

func NewConfig() (*Config, error) {
	config := Config{
		TickInterval:  durationFromEnv("TICK_INTERVAL", "60s"),
		StopGrace:     durationFromEnv("STOP_GRACE", "30s"),
		MaxConcurrent: intFromEnv("MAX_CONCURRENT_FETCH", 8),
		CandleLimit:   intFromEnv("CANDLE_LIMIT", 200),

		WatchTopN: intFromEnv("WATCH_TOP_N", 0),

		SubscriberBuffer: intFromEnv("SUBSCRIBER_BUFFER", 64),
		RecentCap:        intFromEnv("RECENT_CAP", 100),

		Symbols: listFromEnv("SYMBOLS",
			"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT",
			"DOGEUSDT", "AVAXUSDT", "DOTUSDT", "LINKUSDT", "LTCUSDT"),
		Timeframes: listFromEnv("TIMEFRAMES", "3m", "5m", "15m", "1h", "4h"),
		Strategies: listFromEnv("STRATEGIES",
			"GCM", "RSI", "MACD", "RSI_EMA50", "SCALPING", "SWING_TRADE", "DAY_TRADE"),

		Strategy: models.DefaultStrategyConfig(),
	}
	config.Exchange.RateLimit = floatFromEnv("EXCHANGE_RATE_LIMIT", 10)

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err == nil {
		defer func() {
			_ = file.Close()
		}()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			log.Fatalf("Failed to decode config file: %v", err)
		}
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}
	if chat := os.Getenv(chatTelegramENV); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects a configuration the engine cannot run with.
func (c *Config) Validate() error {
	for _, tf := range c.Timeframes {
		if !models.Timeframe(tf).Valid() {
			return &models.ConfigError{Err: fmt.Errorf("unknown timeframe %q", tf)}
		}
	}
	for _, s := range c.Strategies {
		if !models.StrategyKind(s).Valid() {
			return &models.ConfigError{Err: fmt.Errorf("unknown strategy %q", s)}
		}
	}
	if err := c.Strategy.Validate(); err != nil {
		return &models.ConfigError{Err: err}
	}
	return nil
}

// Matrix expands the watch grid into the initial active matrix.
func (c *Config) Matrix() models.ActiveMatrix {
	kinds := make([]models.StrategyKind, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		kinds = append(kinds, models.StrategyKind(s))
	}
	tfs := make([]models.Timeframe, 0, len(c.Timeframes))
	for _, tf := range c.Timeframes {
		tfs = append(tfs, models.Timeframe(tf))
	}
	return models.BuildMatrix(kinds, c.Symbols, tfs)
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func listFromEnv(key string, def ...string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
