package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-pulse/internal/domain"
	"token-pulse/internal/factory"
	"token-pulse/internal/randsrc"
)

func flatToken(id string, price float64) *domain.Token {
	return &domain.Token{
		ID:        id,
		BasePrice: price,
		MarketCap: 50_000,
		Liquidity: 5_000,
		Volume:    100,
		Transactions: domain.Transactions{
			Total: 10, Buys: 6, Sells: 4,
		},
		PriceHistory: domain.PriceHistory{
			M1:  []float64{price},
			M5:  []float64{price},
			M30: []float64{price},
			H1:  []float64{price},
		},
		Holders:        300,
		Top10Holders:   10,
		DevHolders:     10,
		SnipersHolders: 10,
		Insiders:       10,
		Bundlers:       10,
	}
}

// applyAll runs a tick and merges every update into tokens by id.
func applyAll(e *Engine, tokens []*domain.Token) TickResult {
	byID := make(map[string]*domain.Token, len(tokens))
	for _, t := range tokens {
		byID[t.ID] = t
	}
	return e.Tick(tokens, func(id string, u *domain.TokenUpdate) {
		u.ApplyTo(byID[id])
	})
}

func TestUpdate_ScriptedDraws(t *testing.T) {
	// roll(extreme), magnitude(8%), sign(+), volume +500/-0, liquidity 0,
	// buy yes, sell no, holders yes (+3), five zero jitters.
	src := randsrc.NewSequence(0.05, 0, 0.9, 0.5, 0, 0.5, 0.0, 0.9, 0.1, 0.99, 0.5, 0.5, 0.5, 0.5, 0.5)
	e := NewEngine(Options{Source: src})
	tok := flatToken("t", 1.0)

	u := e.Update(tok)

	require.Equal(t, 15, src.Draws())
	require.NotNil(t, u.PriceChange)
	assert.InDelta(t, 8.0, u.PriceChange.H1, 1e-9)
	assert.InDelta(t, 0.8, u.PriceChange.M1, 1e-9)
	assert.InDelta(t, 2.4, u.PriceChange.M5, 1e-9)
	assert.InDelta(t, 5.6, u.PriceChange.M30, 1e-9)

	require.NotNil(t, u.PriceHistory)
	assert.InDeltaSlice(t, []float64{1.0, 1.08}, u.PriceHistory.H1, 1e-9)
	assert.InDeltaSlice(t, []float64{1.0, 1.008}, u.PriceHistory.M1, 1e-9)
	assert.InDeltaSlice(t, []float64{1.0, 1.024}, u.PriceHistory.M5, 1e-9)
	assert.InDeltaSlice(t, []float64{1.0, 1.056}, u.PriceHistory.M30, 1e-9)

	assert.InDelta(t, 54_000.0, *u.MarketCap, 1e-6)
	assert.InDelta(t, 600.0, *u.Volume, 1e-9)
	assert.InDelta(t, 5_000.0, *u.Liquidity, 1e-9)
	assert.Equal(t, domain.Transactions{Total: 11, Buys: 7, Sells: 4}, *u.Transactions)
	assert.Equal(t, 303, *u.Holders)
	assert.Equal(t, 10.0, *u.Top10Holders)
	assert.Equal(t, domain.TrendUp, *u.Trend)

	// The input token is untouched.
	assert.Len(t, tok.PriceHistory.H1, 1)
	assert.Equal(t, 50_000.0, tok.MarketCap)
}

func TestUpdate_EmptyTimeframeStartsFromHourPrice(t *testing.T) {
	// Same draws as above: +8% shock on a 1h price of 1.0.
	src := randsrc.NewSequence(0.05, 0, 0.9, 0.5, 0, 0.5, 0.0, 0.9, 0.1, 0.99, 0.5, 0.5, 0.5, 0.5, 0.5)
	e := NewEngine(Options{Source: src})
	tok := flatToken("t", 1.0)
	tok.PriceHistory.M1 = nil

	u := e.Update(tok)

	require.NotNil(t, u.PriceHistory)
	assert.InDeltaSlice(t, []float64{1.008}, u.PriceHistory.M1, 1e-9)
	assert.InDeltaSlice(t, []float64{1.0, 1.08}, u.PriceHistory.H1, 1e-9)
}

func TestUpdate_LowTimeframeKeepsItsCeiling(t *testing.T) {
	// 1m sits far below the 1h price: its next point still stays within
	// twice its own last point.
	e := NewEngine(Options{Source: randsrc.NewSeeded(3)})
	tok := flatToken("t", 1.0)
	tok.PriceHistory.H1 = []float64{50}
	tok.PriceHistory.M1 = []float64{1}

	u := e.Update(tok)

	last, ok := u.PriceHistory.Last(domain.Timeframe1m)
	require.True(t, ok)
	assert.LessOrEqual(t, last, 2.0)
	assert.GreaterOrEqual(t, last, 0.1)
}

func TestUpdate_ShockTiers(t *testing.T) {
	tests := []struct {
		name     string
		roll     float64
		min, max float64
	}{
		{"extreme", 0.05, 8, 15},
		{"large", 0.2, 3, 8},
		{"moderate", 0.7, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mag := range []float64{0, 0.999} {
				e := NewEngine(Options{Source: randsrc.NewSequence(tt.roll, mag, 0.9)})
				got := e.drawShock()
				assert.GreaterOrEqual(t, got, tt.min)
				assert.Less(t, got, tt.max)
			}
		})
	}
}

func TestUpdate_NegativeShockTrendsDown(t *testing.T) {
	// sign draw 0.1 -> negative
	e := NewEngine(Options{Source: randsrc.NewSequence(0.7, 0.5, 0.1, 0.5)})
	u := e.Update(flatToken("t", 1.0))
	assert.InDelta(t, -2.0, u.PriceChange.H1, 1e-9)
	assert.Equal(t, domain.TrendDown, *u.Trend)
}

func TestUpdate_FloorWinsOverCeiling(t *testing.T) {
	// Last price far below the base floor: the next point is lifted to the
	// floor even though it exceeds 2x the previous point.
	e := NewEngine(Options{Source: randsrc.NewSeeded(1)})
	tok := flatToken("t", 1.0)
	tok.BasePrice = 100

	u := e.Update(tok)

	for _, tf := range domain.Timeframes {
		last, ok := u.PriceHistory.Last(tf)
		require.True(t, ok)
		assert.InDelta(t, 10.0, last, 1e-9, tf)
	}
}

func TestUpdate_MarketCapAndLiquidityFloors(t *testing.T) {
	e := NewEngine(Options{Source: randsrc.NewSeeded(2)})
	tok := flatToken("t", 1.0)
	tok.MarketCap = 10_000
	tok.Liquidity = 1_000
	tok.Volume = 0

	for i := 0; i < 200; i++ {
		e.Update(tok).ApplyTo(tok)
		require.GreaterOrEqual(t, tok.MarketCap, 10_000.0)
		require.GreaterOrEqual(t, tok.Liquidity, 1_000.0)
		require.GreaterOrEqual(t, tok.Volume, 0.0)
	}
}

func TestUpdate_EmptyHistorySkipsPriceFields(t *testing.T) {
	e := NewEngine(Options{Source: randsrc.NewSeeded(3)})
	tok := flatToken("t", 1.0)
	tok.PriceHistory.H1 = nil
	tok.Trend = domain.TrendNeutral

	u := e.Update(tok)

	assert.False(t, u.TouchesPrice())
	assert.Nil(t, u.PriceHistory)
	assert.Nil(t, u.PriceChange)
	assert.Nil(t, u.MarketCap)
	assert.Nil(t, u.Trend)
	assert.NotNil(t, u.Volume)
	assert.NotNil(t, u.Transactions)
	assert.NotNil(t, u.Holders)
}

func TestUpdate_HolderPercentagesClamped(t *testing.T) {
	e := NewEngine(Options{Source: randsrc.NewSeeded(4)})
	tok := flatToken("t", 1.0)
	tok.DevHolders = 0
	tok.Top10Holders = 100

	for i := 0; i < 500; i++ {
		e.Update(tok).ApplyTo(tok)
		for _, p := range tok.HolderPercentages() {
			require.GreaterOrEqual(t, *p, 0.0)
			require.LessOrEqual(t, *p, 100.0)
		}
	}
}

func TestTick_EndToEnd(t *testing.T) {
	f := factory.New(factory.Options{Source: randsrc.NewSeeded(10)})
	tokens := f.CreateTokenSet(20)
	e := NewEngine(Options{Source: randsrc.NewSeeded(11)})

	type snapshot struct {
		tx      domain.Transactions
		holders int
	}
	prev := make(map[string]snapshot, len(tokens))
	for _, tok := range tokens {
		prev[tok.ID] = snapshot{tok.Transactions, tok.Holders}
	}

	for i := 0; i < 5; i++ {
		var preLast = make(map[string]domain.PriceHistory, len(tokens))
		for _, tok := range tokens {
			preLast[tok.ID] = tok.PriceHistory.Clone()
		}

		res := applyAll(e, tokens)
		require.Equal(t, 20, res.Mutated)
		require.Zero(t, res.PriceSkipped)

		for _, tok := range tokens {
			p := prev[tok.ID]
			assert.GreaterOrEqual(t, tok.Transactions.Buys, p.tx.Buys)
			assert.GreaterOrEqual(t, tok.Transactions.Sells, p.tx.Sells)
			assert.Equal(t, tok.Transactions.Buys+tok.Transactions.Sells, tok.Transactions.Total)
			assert.GreaterOrEqual(t, tok.Holders, p.holders)
			prev[tok.ID] = snapshot{tok.Transactions, tok.Holders}

			pc := tok.PriceChange
			assert.InDelta(t, 0.1*pc.H1, pc.M1, 1e-12)
			assert.InDelta(t, 0.3*pc.H1, pc.M5, 1e-12)
			assert.InDelta(t, 0.7*pc.H1, pc.M30, 1e-12)
			assert.Equal(t, domain.ClassifyTrend(pc.H1, 0.3), tok.Trend)

			for _, tf := range domain.Timeframes {
				series := tok.PriceHistory.Get(tf)
				assert.LessOrEqual(t, len(series), 20)
				before, _ := preLast[tok.ID].Last(tf)
				last := series[len(series)-1]
				assert.LessOrEqual(t, last, before*2.0+1e-12)
				assert.GreaterOrEqual(t, last, tok.BasePrice*0.1)
			}
		}
	}

	// 1m started at 12 points and gained one per tick.
	assert.Len(t, tokens[0].PriceHistory.M1, 17)
	assert.Len(t, tokens[0].PriceHistory.H1, 20)
}

func TestTick_WindowBound(t *testing.T) {
	params := DefaultParams()
	params.HistoryWindow = 5
	e := NewEngine(Options{Source: randsrc.NewSeeded(12), Params: &params})
	tokens := []*domain.Token{flatToken("a", 1.0)}

	for i := 0; i < 30; i++ {
		applyAll(e, tokens)
	}

	for _, tf := range domain.Timeframes {
		assert.Len(t, tokens[0].PriceHistory.Get(tf), 5, tf)
	}
}

func TestTick_DefaultWindowFillsToTwenty(t *testing.T) {
	e := NewEngine(Options{Source: randsrc.NewSeeded(21)})
	tokens := factory.New(factory.Options{Source: randsrc.NewSeeded(22)}).CreateTokenSet(20)

	for i := 0; i < 25; i++ {
		applyAll(e, tokens)
	}

	for _, tok := range tokens {
		for _, tf := range domain.Timeframes {
			assert.Len(t, tok.PriceHistory.Get(tf), DefaultParams().HistoryWindow, "%s %s", tok.ID, tf)
		}
	}
}

func TestTick_SingleMode(t *testing.T) {
	// first draw selects index int(0.5*3) = 1
	e := NewEngine(Options{Source: randsrc.NewSequence(0.5), Mode: ModeSingle})
	tokens := []*domain.Token{flatToken("a", 1), flatToken("b", 1), flatToken("c", 1)}

	var ids []string
	res := e.Tick(tokens, func(id string, _ *domain.TokenUpdate) {
		ids = append(ids, id)
	})

	assert.Equal(t, 1, res.Mutated)
	assert.Equal(t, []string{"b"}, ids)
}

func TestTick_EmptySetIsNoop(t *testing.T) {
	e := NewEngine(Options{Source: randsrc.NewSeeded(13)})
	called := false
	res := e.Tick(nil, func(string, *domain.TokenUpdate) { called = true })
	assert.False(t, called)
	assert.Zero(t, res.Mutated)
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.HistoryWindow = 0
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.BuyProbability = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.PriceCeilingRatio = 1
	assert.Error(t, bad.Validate())
}
