// Package config loads the simulation server configuration from YAML,
// environment overrides and defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"token-pulse/internal/market"
)

// Config holds all application configuration.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Market     MarketConfig     `yaml:"market"`
	Server     ServerConfig     `yaml:"server"`
	Feed       FeedConfig       `yaml:"feed"`
	Summary    SummaryConfig    `yaml:"summary"`
}

// SimulationConfig controls the token set and tick loop.
type SimulationConfig struct {
	TokenCount   int           `yaml:"token_count"`
	TickInterval time.Duration `yaml:"tick_interval"`
	TickMode     string        `yaml:"tick_mode"` // all | single
	Seed         uint64        `yaml:"seed"`      // 0 = entropy
	ImageBaseURL string        `yaml:"image_base_url"`
}

// MarketConfig holds the tick engine and factory constants.
type MarketConfig struct {
	HistoryWindow            int     `yaml:"history_window"`
	PriceFloorRatio          float64 `yaml:"price_floor_ratio"`
	PriceCeilingRatio        float64 `yaml:"price_ceiling_ratio"`
	CreationTrendThreshold   float64 `yaml:"creation_trend_threshold"`
	TickTrendThreshold       float64 `yaml:"tick_trend_threshold"`
	BuyProbability           float64 `yaml:"buy_probability"`
	SellProbability          float64 `yaml:"sell_probability"`
	HoldersGrowthProbability float64 `yaml:"holders_growth_probability"`
	MinMarketCap             float64 `yaml:"min_market_cap"`
	MinLiquidity             float64 `yaml:"min_liquidity"`
	HolderJitter             float64 `yaml:"holder_jitter"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// FeedConfig holds websocket feed timings.
type FeedConfig struct {
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	SendBuffer   int           `yaml:"send_buffer"`
}

// SummaryConfig controls the periodic session summary.
type SummaryConfig struct {
	Disabled bool   `yaml:"disabled"`
	Schedule string `yaml:"schedule"` // cron spec, seconds field optional
	TopN     int    `yaml:"top_n"`
}

// Load reads a YAML config file, expands ${VAR} references and applies
// TOKEN_PULSE_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// MarketParams converts the market section into tick engine params.
func (c *Config) MarketParams() market.Params {
	p := market.DefaultParams()
	p.HistoryWindow = c.Market.HistoryWindow
	p.PriceFloorRatio = c.Market.PriceFloorRatio
	p.PriceCeilingRatio = c.Market.PriceCeilingRatio
	p.TrendThreshold = c.Market.TickTrendThreshold
	p.BuyProbability = c.Market.BuyProbability
	p.SellProbability = c.Market.SellProbability
	p.HoldersGrowthProbability = c.Market.HoldersGrowthProbability
	p.MinMarketCap = c.Market.MinMarketCap
	p.MinLiquidity = c.Market.MinLiquidity
	p.HolderJitter = c.Market.HolderJitter
	return p
}

// applyEnv overrides file values with TOKEN_PULSE_* variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("TOKEN_PULSE_TOKEN_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TOKEN_PULSE_TOKEN_COUNT: %w", err)
		}
		c.Simulation.TokenCount = n
	}
	if v := os.Getenv("TOKEN_PULSE_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_PULSE_TICK_INTERVAL: %w", err)
		}
		c.Simulation.TickInterval = d
	}
	if v := os.Getenv("TOKEN_PULSE_TICK_MODE"); v != "" {
		c.Simulation.TickMode = v
	}
	if v := os.Getenv("TOKEN_PULSE_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TOKEN_PULSE_SEED: %w", err)
		}
		c.Simulation.Seed = seed
	}
	if v := os.Getenv("TOKEN_PULSE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TOKEN_PULSE_SUMMARY_SCHEDULE"); v != "" {
		c.Summary.Schedule = v
	}
	return nil
}
