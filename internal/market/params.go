package market

import (
	"errors"
	"fmt"
)

// Mode selects which tokens a tick mutates.
type Mode string

const (
	ModeAll    Mode = "all"    // every token, every tick
	ModeSingle Mode = "single" // one random token per tick
)

// Params holds the tick engine constants.
type Params struct {
	HistoryWindow            int     // max points per timeframe history
	PriceFloorRatio          float64 // of pre-tick price and of base price
	PriceCeilingRatio        float64 // of the preceding point
	TrendThreshold           float64 // |1h change| above which a token trends
	BuyProbability           float64
	SellProbability          float64
	HoldersGrowthProbability float64
	MaxHoldersGrowth         int     // growth is uniform in [1, max]
	MinMarketCap             float64
	MinLiquidity             float64
	LiquidityJitterPct       float64 // ± percent per tick
	VolumeIncrementMax       float64
	VolumeDecrementMax       float64
	HolderJitter             float64 // max |delta| for percentage holder metrics
}

// DefaultParams returns the canonical constants.
func DefaultParams() Params {
	return Params{
		HistoryWindow:            20,
		PriceFloorRatio:          0.10,
		PriceCeilingRatio:        2.0,
		TrendThreshold:           0.3,
		BuyProbability:           0.6,
		SellProbability:          0.5,
		HoldersGrowthProbability: 0.3,
		MaxHoldersGrowth:         3,
		MinMarketCap:             10_000,
		MinLiquidity:             1_000,
		LiquidityJitterPct:       1.0,
		VolumeIncrementMax:       1_000,
		VolumeDecrementMax:       500,
		HolderJitter:             0.5,
	}
}

// Validate checks params for values the engine cannot work with.
func (p Params) Validate() error {
	if p.HistoryWindow < 1 {
		return errors.New("history_window must be >= 1")
	}
	if p.PriceFloorRatio <= 0 || p.PriceFloorRatio >= 1 {
		return fmt.Errorf("price_floor_ratio must be in (0,1), got %v", p.PriceFloorRatio)
	}
	if p.PriceCeilingRatio <= 1 {
		return fmt.Errorf("price_ceiling_ratio must be > 1, got %v", p.PriceCeilingRatio)
	}
	if p.TrendThreshold < 0 {
		return fmt.Errorf("trend_threshold must be >= 0, got %v", p.TrendThreshold)
	}
	for name, v := range map[string]float64{
		"buy_probability":            p.BuyProbability,
		"sell_probability":           p.SellProbability,
		"holders_growth_probability": p.HoldersGrowthProbability,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if p.MaxHoldersGrowth < 1 {
		return errors.New("max_holders_growth must be >= 1")
	}
	if p.MinMarketCap < 0 || p.MinLiquidity < 0 {
		return errors.New("min_market_cap and min_liquidity must be >= 0")
	}
	if p.VolumeIncrementMax < 0 || p.VolumeDecrementMax < 0 || p.HolderJitter < 0 || p.LiquidityJitterPct < 0 {
		return errors.New("jitter and volume bounds must be >= 0")
	}
	return nil
}
