package config

import (
	"errors"
	"fmt"

	"token-pulse/internal/market"
	"token-pulse/internal/summary"
)

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.Simulation.TokenCount < 1 {
		return fmt.Errorf("simulation.token_count must be >= 1, got %d", c.Simulation.TokenCount)
	}
	if c.Simulation.TickInterval <= 0 {
		return errors.New("simulation.tick_interval must be positive")
	}
	switch market.Mode(c.Simulation.TickMode) {
	case market.ModeAll, market.ModeSingle:
	default:
		return fmt.Errorf("simulation.tick_mode must be all or single, got %q", c.Simulation.TickMode)
	}

	if c.Market.CreationTrendThreshold < 0 {
		return errors.New("market.creation_trend_threshold must be >= 0")
	}
	if err := c.MarketParams().Validate(); err != nil {
		return fmt.Errorf("market: %w", err)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.Feed.WriteTimeout <= 0 || c.Feed.ReadTimeout <= 0 || c.Feed.PingInterval <= 0 {
		return errors.New("feed timeouts must be positive")
	}
	if c.Feed.PingInterval >= c.Feed.ReadTimeout {
		return fmt.Errorf("feed.ping_interval (%s) must be shorter than feed.read_timeout (%s)", c.Feed.PingInterval, c.Feed.ReadTimeout)
	}
	if c.Feed.SendBuffer < 1 {
		return errors.New("feed.send_buffer must be >= 1")
	}

	if !c.Summary.Disabled {
		if _, err := summary.ParseSchedule(c.Summary.Schedule); err != nil {
			return fmt.Errorf("summary.schedule: %w", err)
		}
		if c.Summary.TopN < 1 {
			return errors.New("summary.top_n must be >= 1")
		}
	}

	return nil
}
