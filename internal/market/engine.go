// Package market implements the periodic mutation pass that keeps the
// synthetic token set moving.
package market

import (
	"math"

	"token-pulse/internal/domain"
	"token-pulse/internal/randsrc"
)

// MutateFunc applies a partial update to the token with the given id.
type MutateFunc func(id string, update *domain.TokenUpdate)

// shockTier is one band of the tiered 1h move distribution.
type shockTier struct {
	cumulative float64 // roll below this selects the tier
	minPct     float64
	maxPct     float64
}

// 10% extreme, 30% large, 60% moderate.
var shockTiers = []shockTier{
	{0.1, 8.0, 15.0},
	{0.4, 3.0, 8.0},
	{1.0, 1.0, 3.0},
}

// TickResult summarizes one mutation pass.
type TickResult struct {
	Mutated      int // tokens passed to mutate
	PriceSkipped int // tokens whose price fields were skipped (empty 1h history)
}

// Engine computes per-tick token updates. Not safe for concurrent use;
// the session writer owns it.
type Engine struct {
	src    randsrc.Source
	params Params
	mode   Mode
}

// Options configures an Engine.
type Options struct {
	Source randsrc.Source
	Params *Params // default DefaultParams()
	Mode   Mode    // default ModeAll
}

// NewEngine creates a tick engine.
func NewEngine(opts Options) *Engine {
	src := opts.Source
	if src == nil {
		src = randsrc.NewEntropy()
	}
	params := DefaultParams()
	if opts.Params != nil {
		params = *opts.Params
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeAll
	}
	return &Engine{src: src, params: params, mode: mode}
}

// Params returns the engine constants.
func (e *Engine) Params() Params {
	return e.params
}

// Mode returns which tokens a tick mutates.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Tick runs one mutation pass over tokens. Every update for the pass is
// computed from the pre-tick state before any is handed to mutate.
func (e *Engine) Tick(tokens []*domain.Token, mutate MutateFunc) TickResult {
	var result TickResult
	if len(tokens) == 0 {
		return result
	}

	targets := tokens
	if e.mode == ModeSingle {
		targets = []*domain.Token{tokens[randsrc.Intn(e.src, len(tokens))]}
	}

	type pending struct {
		id     string
		update *domain.TokenUpdate
	}
	batch := make([]pending, 0, len(targets))
	for _, t := range targets {
		if t == nil {
			continue
		}
		u := e.Update(t)
		if !u.TouchesPrice() {
			result.PriceSkipped++
		}
		batch = append(batch, pending{id: t.ID, update: u})
	}

	for _, p := range batch {
		mutate(p.id, p.update)
		result.Mutated++
	}
	return result
}

// Update computes the next-tick update for t without modifying it.
// When t has no 1h history the price-derived fields are left nil.
func (e *Engine) Update(t *domain.Token) *domain.TokenUpdate {
	p := e.params
	src := e.src

	change1h := e.drawShock()
	u := &domain.TokenUpdate{}

	volume := math.Max(0, t.Volume+randsrc.Between(src, 0, p.VolumeIncrementMax)-randsrc.Between(src, 0, p.VolumeDecrementMax))
	u.Volume = &volume

	liquidity := math.Max(p.MinLiquidity, t.Liquidity*(1+randsrc.Between(src, -p.LiquidityJitterPct, p.LiquidityJitterPct)/100))
	u.Liquidity = &liquidity

	tx := t.Transactions
	if randsrc.Chance(src, p.BuyProbability) {
		tx.Buys++
		tx.Total++
	}
	if randsrc.Chance(src, p.SellProbability) {
		tx.Sells++
		tx.Total++
	}
	u.Transactions = &tx

	holders := t.Holders
	if randsrc.Chance(src, p.HoldersGrowthProbability) {
		holders += 1 + randsrc.Intn(src, p.MaxHoldersGrowth)
	}
	u.Holders = &holders

	u.Top10Holders = e.jitterPercent(t.Top10Holders)
	u.DevHolders = e.jitterPercent(t.DevHolders)
	u.SnipersHolders = e.jitterPercent(t.SnipersHolders)
	u.Insiders = e.jitterPercent(t.Insiders)
	u.Bundlers = e.jitterPercent(t.Bundlers)

	current, ok := t.PriceHistory.Last(domain.Timeframe1h)
	if !ok {
		return u
	}

	var history domain.PriceHistory
	for _, tf := range domain.Timeframes {
		last, ok := t.PriceHistory.Last(tf)
		if !ok {
			last = current
		}
		next := e.nextPrice(last, math.Max(last, t.BasePrice), tf.Share()*change1h)
		history.Set(tf, domain.AppendBounded(t.PriceHistory.Get(tf), next, p.HistoryWindow))
	}
	u.PriceHistory = &history

	changes := domain.DerivePriceChanges(change1h)
	u.PriceChange = &changes

	marketCap := math.Max(p.MinMarketCap, t.MarketCap*(1+change1h/100))
	u.MarketCap = &marketCap

	trend := domain.ClassifyTrend(change1h, p.TrendThreshold)
	u.Trend = &trend

	return u
}

// nextPrice moves last by changePct, bounded below by the floor ratio of
// anchor and above by the ceiling ratio of last. The floor wins if they cross.
//
// Callers anchor each timeframe on max(own last point, base price), not on
// the 1h price, so a short history sitting far below the 1h price is never
// lifted past twice its previous point.
func (e *Engine) nextPrice(last, anchor, changePct float64) float64 {
	floor := anchor * e.params.PriceFloorRatio
	return clamp(last*(1+changePct/100), floor, last*e.params.PriceCeilingRatio)
}

// drawShock draws a signed 1h percentage change from the tiered distribution.
func (e *Engine) drawShock() float64 {
	roll := e.src.Float64()
	tier := shockTiers[len(shockTiers)-1]
	for _, st := range shockTiers {
		if roll < st.cumulative {
			tier = st
			break
		}
	}
	magnitude := randsrc.Between(e.src, tier.minPct, tier.maxPct)
	return randsrc.Sign(e.src) * magnitude
}

func (e *Engine) jitterPercent(v float64) *float64 {
	j := e.params.HolderJitter
	next := clamp(v+randsrc.Between(e.src, -j, j), 0, 100)
	return &next
}

// clamp bounds v to [lo, hi]; lo wins when the bounds cross.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
