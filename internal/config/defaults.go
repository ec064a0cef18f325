package config

import (
	"time"

	"token-pulse/internal/market"
)

// Default values for optional configuration fields.
const (
	DefaultTokenCount             = 20
	DefaultTickInterval           = 1 * time.Second
	DefaultTickMode               = string(market.ModeAll)
	DefaultCreationTrendThreshold = 1.0
	DefaultAddr                   = ":8080"
	DefaultWriteTimeout           = 5 * time.Second
	DefaultReadTimeout            = 60 * time.Second
	DefaultPingInterval           = 20 * time.Second
	DefaultSendBuffer             = 16
	DefaultSummarySchedule        = "@every 30s"
	DefaultSummaryTopN            = 3
)

func (c *Config) applyDefaults() {
	// Simulation defaults
	if c.Simulation.TokenCount == 0 {
		c.Simulation.TokenCount = DefaultTokenCount
	}
	if c.Simulation.TickInterval == 0 {
		c.Simulation.TickInterval = DefaultTickInterval
	}
	if c.Simulation.TickMode == "" {
		c.Simulation.TickMode = DefaultTickMode
	}

	// Market defaults
	p := market.DefaultParams()
	m := &c.Market
	if m.HistoryWindow == 0 {
		m.HistoryWindow = p.HistoryWindow
	}
	if m.PriceFloorRatio == 0 {
		m.PriceFloorRatio = p.PriceFloorRatio
	}
	if m.PriceCeilingRatio == 0 {
		m.PriceCeilingRatio = p.PriceCeilingRatio
	}
	if m.CreationTrendThreshold == 0 {
		m.CreationTrendThreshold = DefaultCreationTrendThreshold
	}
	if m.TickTrendThreshold == 0 {
		m.TickTrendThreshold = p.TrendThreshold
	}
	if m.BuyProbability == 0 {
		m.BuyProbability = p.BuyProbability
	}
	if m.SellProbability == 0 {
		m.SellProbability = p.SellProbability
	}
	if m.HoldersGrowthProbability == 0 {
		m.HoldersGrowthProbability = p.HoldersGrowthProbability
	}
	if m.MinMarketCap == 0 {
		m.MinMarketCap = p.MinMarketCap
	}
	if m.MinLiquidity == 0 {
		m.MinLiquidity = p.MinLiquidity
	}
	if m.HolderJitter == 0 {
		m.HolderJitter = p.HolderJitter
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}

	// Feed defaults
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.ReadTimeout == 0 {
		c.Feed.ReadTimeout = DefaultReadTimeout
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.SendBuffer == 0 {
		c.Feed.SendBuffer = DefaultSendBuffer
	}

	// Summary defaults
	if c.Summary.Schedule == "" {
		c.Summary.Schedule = DefaultSummarySchedule
	}
	if c.Summary.TopN == 0 {
		c.Summary.TopN = DefaultSummaryTopN
	}
}
