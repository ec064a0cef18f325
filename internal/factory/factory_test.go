package factory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-pulse/internal/domain"
	"token-pulse/internal/mintaddr"
	"token-pulse/internal/pricepath"
	"token-pulse/internal/randsrc"
)

func newTestFactory(seed uint64) *Factory {
	return New(Options{Source: randsrc.NewSeeded(seed)})
}

func TestCreateTokenSet_CountAndIDs(t *testing.T) {
	f := newTestFactory(1)

	tokens := f.CreateTokenSet(20)

	require.Len(t, tokens, 20)
	for i, tok := range tokens {
		assert.Equal(t, fmt.Sprintf("token-%d", i), tok.ID)
	}
}

func TestCreateTokenSet_IDsNeverReused(t *testing.T) {
	f := newTestFactory(2)

	first := f.CreateTokenSet(5)
	second := f.CreateTokenSet(5)

	seen := make(map[string]bool)
	for _, tok := range append(first, second...) {
		if seen[tok.ID] {
			t.Fatalf("id %s reused", tok.ID)
		}
		seen[tok.ID] = true
	}
	assert.Equal(t, "token-5", second[0].ID)
}

func TestCreateTokenSet_TimeframeConsistency(t *testing.T) {
	tokens := newTestFactory(3).CreateTokenSet(50)

	for _, tok := range tokens {
		pc := tok.PriceChange
		assert.Equal(t, 0.1*pc.H1, pc.M1, tok.ID)
		assert.Equal(t, 0.3*pc.H1, pc.M5, tok.ID)
		assert.Equal(t, 0.7*pc.H1, pc.M30, tok.ID)
		assert.GreaterOrEqual(t, pc.H1, -10.0)
		assert.LessOrEqual(t, pc.H1, 10.0)
	}
}

func TestCreateTokenSet_TrendFromCreationThreshold(t *testing.T) {
	tokens := newTestFactory(4).CreateTokenSet(50)

	for _, tok := range tokens {
		assert.Equal(t, domain.ClassifyTrend(tok.PriceChange.H1, DefaultTrendThreshold), tok.Trend, tok.ID)
	}
}

func TestCreateTokenSet_Histories(t *testing.T) {
	tokens := newTestFactory(5).CreateTokenSet(20)

	wantLen := map[domain.Timeframe]int{
		domain.Timeframe1m:  12,
		domain.Timeframe5m:  18,
		domain.Timeframe30m: 20,
		domain.Timeframe1h:  20,
	}

	for _, tok := range tokens {
		floor := tok.BasePrice * pricepath.FloorRatio
		for _, tf := range domain.Timeframes {
			series := tok.PriceHistory.Get(tf)
			assert.Len(t, series, wantLen[tf], "%s %s", tok.ID, tf)
			for _, p := range series {
				assert.GreaterOrEqual(t, p, floor, "%s %s", tok.ID, tf)
			}
		}
	}
}

func TestCreateTokenSet_FieldRanges(t *testing.T) {
	tokens := newTestFactory(6).CreateTokenSet(100)

	for _, tok := range tokens {
		assert.GreaterOrEqual(t, tok.MarketCap, 10_000.0)
		assert.Less(t, tok.MarketCap, 210_000.0)
		assert.Equal(t, tok.MarketCap/EstimatedSupply, tok.BasePrice)
		assert.GreaterOrEqual(t, tok.Liquidity, tok.MarketCap*0.2)
		assert.GreaterOrEqual(t, tok.Volume, 0.0)
		assert.Equal(t, tok.Transactions.Buys+tok.Transactions.Sells, tok.Transactions.Total)
		assert.GreaterOrEqual(t, tok.Holders, 200)
		assert.GreaterOrEqual(t, tok.OtherCount, 100)
		for _, p := range tok.HolderPercentages() {
			assert.GreaterOrEqual(t, *p, 0.0)
			assert.LessOrEqual(t, *p, 100.0)
		}
		assert.NotEmpty(t, tok.Symbol)
		assert.LessOrEqual(t, len(tok.Symbol), 4)
		assert.True(t, mintaddr.IsOnCurve(tok.Mint), "mint %s", tok.Mint)
	}
}

func TestCreateTokenSet_Categories(t *testing.T) {
	tokens := newTestFactory(7).CreateTokenSet(20)

	counts := make(map[domain.Category]int)
	for _, tok := range tokens {
		counts[tok.Category]++
	}

	assert.Equal(t, 7, counts[domain.CategoryNew])
	assert.Equal(t, 7, counts[domain.CategoryFinal])
	assert.Equal(t, 6, counts[domain.CategoryMigrated])
	assert.Equal(t, domain.CategoryNew, tokens[6].Category)
	assert.Equal(t, domain.CategoryFinal, tokens[7].Category)
	assert.Equal(t, domain.CategoryMigrated, tokens[14].Category)
}

func TestCreateTokenSet_NamesAndSymbols(t *testing.T) {
	tokens := newTestFactory(8).CreateTokenSet(8)

	assert.Equal(t, "Krill The Krill", tokens[0].Name)
	assert.Equal(t, "KRIL", tokens[0].Symbol)
	assert.Equal(t, "Q1 The New Beginn", tokens[5].Name)
	assert.Equal(t, "Q1", tokens[5].Symbol)
	assert.Equal(t, "Krill The Krill 6", tokens[6].Name)
}

func TestCreateTokenSet_InvalidCountPanics(t *testing.T) {
	f := newTestFactory(9)
	assert.Panics(t, func() { f.CreateTokenSet(0) })
}
