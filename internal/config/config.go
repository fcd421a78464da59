package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type MarketData struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Rates is the piecewise-constant annual bank rate: Base applies from the
// beginning of time, Changes override it from their date onward.
type Rates struct {
	Base    float64            `mapstructure:"base"`
	Changes map[string]float64 `mapstructure:"changes"` // "2006-01-02" -> annual %
}

// Engine carries the lookup tables the valuation engine used to hard-code.
type Engine struct {
	// corporate-action identifier remaps, old ISIN -> new ISIN
	InstrumentChanges map[string]string `mapstructure:"instrument_changes"`
	// funds that settle in RUB but hold USD assets; allocation reporting
	// counts them as USD exposure
	USDFunds []string `mapstructure:"usd_funds"`
	// currency pseudo-instrument -> exchange board ticker
	CurrencyTickers map[string]string `mapstructure:"currency_tickers"`
}

type Cache struct {
	TTL   time.Duration `mapstructure:"ttl"`
	MaxMB int           `mapstructure:"max_mb"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

type Config struct {
	Mongo      Mongo      `mapstructure:"mongo"`
	MarketData MarketData `mapstructure:"marketdata"`
	Rates      Rates      `mapstructure:"rates"`
	Engine     Engine     `mapstructure:"engine"`
	Cache      Cache      `mapstructure:"cache"`
	Log        Log        `mapstructure:"log"`
	ListenAddr string     `mapstructure:"listen_addr"`
}

// Load reads folio.yaml from path (or the working directory) with FOLIO_*
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("folio")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix("folio")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "market")
	v.SetDefault("marketdata.timeout", 30*time.Second)
	v.SetDefault("rates.base", 6.5)
	v.SetDefault("engine.currency_tickers", map[string]string{
		"USD": "USD000UTSTOM",
		"EUR": "EUR_RUB__TOM",
	})
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.max_mb", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("listen_addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		// config file is optional; defaults + env are enough to run
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
