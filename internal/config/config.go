package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Broker     BrokerConfig        `mapstructure:"broker"`
	Scan       ScanConfig          `mapstructure:"scan"`
	Signal     SignalConfig        `mapstructure:"signal"`
	Watchlists map[string][]string `mapstructure:"watchlists"`
	Server     ServerConfig        `mapstructure:"server"`
	Stream     StreamConfig        `mapstructure:"stream"`
	Logging    LoggingConfig       `mapstructure:"logging"`
}

type BrokerConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type ScanConfig struct {
	// Workers 0 means size the pool to the available core count.
	Workers int `mapstructure:"workers"`
}

type SignalConfig struct {
	RSIPeriod       int     `mapstructure:"rsi_period"`
	BBPeriod        int     `mapstructure:"bb_period"`
	BBDev           float64 `mapstructure:"bb_dev"`
	ChartPeriodDays int     `mapstructure:"chart_period_days"`
	Oversold        float64 `mapstructure:"oversold"`
	Overbought      float64 `mapstructure:"overbought"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type StreamConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	IntervalSec int    `mapstructure:"interval_sec"`
	Watchlist   string `mapstructure:"watchlist"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("broker.base_url", "https://api.brokerage.example.com")
	v.SetDefault("broker.timeout_sec", 30)
	v.SetDefault("broker.retry_count", 3)
	v.SetDefault("broker.retry_delay_sec", 2)
	v.SetDefault("broker.rate_per_second", 2)
	v.SetDefault("scan.workers", 0)
	v.SetDefault("signal.rsi_period", 14)
	v.SetDefault("signal.bb_period", 20)
	v.SetDefault("signal.bb_dev", 2.0)
	v.SetDefault("signal.chart_period_days", 365)
	v.SetDefault("signal.oversold", 30.0)
	v.SetDefault("signal.overbought", 70.0)
	v.SetDefault("server.port", "8080")
	v.SetDefault("stream.enabled", false)
	v.SetDefault("stream.interval_sec", 60)
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("SCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("broker.api_key", "SCREENER_API_KEY")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Broker.APIKey == "" {
		return fmt.Errorf("api_key is required (set SCREENER_API_KEY env var)")
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan workers must be >= 0")
	}
	if c.Stream.Enabled && c.Stream.Watchlist == "" {
		return fmt.Errorf("stream.watchlist is required when streaming is enabled")
	}
	return ValidateWatchlists(c.Watchlists)
}

// Watchlist resolves a named watchlist to its ticker list.
func (c *Config) Watchlist(name string) ([]string, bool) {
	tickers, ok := c.Watchlists[name]
	return tickers, ok
}
