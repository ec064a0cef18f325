// Package factory builds the initial token set for a session.
package factory

import (
	"fmt"
	"strings"

	"token-pulse/internal/domain"
	"token-pulse/internal/mintaddr"
	"token-pulse/internal/pricepath"
	"token-pulse/internal/randsrc"
)

// Creation constants.
const (
	EstimatedSupply       = 1_000_000 // assumed circulating supply for base price
	DefaultTrendThreshold = 1.0       // |1h change| above which a new token trends
)

// historySpec is the point count and volatility band of one timeframe.
type historySpec struct {
	timeframe domain.Timeframe
	points    int
	band      pricepath.Band
}

// Short timeframes get tighter bands; all share the token's multiplier.
var historySpecs = []historySpec{
	{domain.Timeframe1m, 12, pricepath.Band{MinPct: 1.5, MaxPct: 5.0}},
	{domain.Timeframe5m, 18, pricepath.Band{MinPct: 2.0, MaxPct: 8.0}},
	{domain.Timeframe30m, 20, pricepath.Band{MinPct: 3.0, MaxPct: 12.0}},
	{domain.Timeframe1h, 20, pricepath.Band{MinPct: 2.5, MaxPct: 10.0}},
}

var displayNames = []string{
	"Krill The Krill",
	"Lilly Save Lilly",
	"Chonky Chonky",
	"Aiko Aiko by Eliza",
	"hollo Hollo",
	"Q1 The New Beginn",
}

// Options configures a Factory.
type Options struct {
	Source         randsrc.Source
	TrendThreshold float64 // default DefaultTrendThreshold
	ImageBaseURL   string  // avatar URL prefix, seed appended
}

// Factory creates tokens with ids that are never reused for its lifetime.
// Not safe for concurrent use; the session writer owns it.
type Factory struct {
	src            randsrc.Source
	trendThreshold float64
	imageBaseURL   string
	nextID         int
}

// New creates a Factory.
func New(opts Options) *Factory {
	src := opts.Source
	if src == nil {
		src = randsrc.NewEntropy()
	}
	threshold := opts.TrendThreshold
	if threshold == 0 {
		threshold = DefaultTrendThreshold
	}
	imageBase := opts.ImageBaseURL
	if imageBase == "" {
		imageBase = "https://api.dicebear.com/7.x/avataaars/svg?seed="
	}
	return &Factory{
		src:            src,
		trendThreshold: threshold,
		imageBaseURL:   imageBase,
	}
}

// CreateTokenSet returns count freshly generated tokens with sequential ids.
// count must be positive.
func (f *Factory) CreateTokenSet(count int) []*domain.Token {
	if count <= 0 {
		panic(fmt.Sprintf("factory: token count must be positive, got %d", count))
	}

	tokens := make([]*domain.Token, 0, count)
	for i := 0; i < count; i++ {
		tokens = append(tokens, f.createToken(i, count))
	}
	return tokens
}

// createToken builds the token at position i of a set of size count.
func (f *Factory) createToken(i, count int) *domain.Token {
	src := f.src
	seq := f.nextID
	f.nextID++

	name := displayNames[seq%len(displayNames)]
	marketCap := randsrc.Between(src, 10_000, 210_000)
	basePrice := marketCap / EstimatedSupply

	// One shock per token; every timeframe change is a fixed share of it.
	change1h := (src.Float64() - 0.5) * 20
	multiplier := randsrc.Between(src, 1.0, 5.0)

	buys := randsrc.Intn(src, 60) + 5
	sells := randsrc.Intn(src, 40) + 5

	t := &domain.Token{
		ID:        fmt.Sprintf("token-%d", seq),
		Name:      displayName(name, seq),
		Symbol:    symbolOf(name),
		Image:     fmt.Sprintf("%s%d", f.imageBaseURL, seq),
		Category:  categoryAt(i, count),
		BasePrice: basePrice,
		MarketCap: marketCap,
		Liquidity: marketCap*0.2 + randsrc.Between(src, 0, 20_000),
		Volume:    randsrc.Between(src, 0, 10_000),
		Transactions: domain.Transactions{
			Total: buys + sells,
			Buys:  buys,
			Sells: sells,
		},
		PriceChange:    domain.DerivePriceChanges(change1h),
		Snipers:        randsrc.Between(src, 0, 30),
		Holders:        randsrc.Intn(src, 2400) + 200,
		Paid:           src.Float64() > 0.4,
		Age:            fmt.Sprintf("%dm", randsrc.Intn(src, 60)),
		Top10Holders:   randsrc.Between(src, 14, 24),
		DevHolders:     randsrc.Between(src, 0, 15),
		SnipersHolders: randsrc.Between(src, 0, 0.7),
		Insiders:       randsrc.Between(src, 2.5, 15.5),
		Bundlers:       randsrc.Between(src, 0, 0.7),
		OtherCount:     randsrc.Intn(src, 530) + 100,
		Trend:          domain.ClassifyTrend(change1h, f.trendThreshold),
	}

	for _, spec := range historySpecs {
		t.PriceHistory.Set(spec.timeframe, pricepath.Generate(src, basePrice, spec.points, spec.band, multiplier))
	}

	t.Mint = mintaddr.Generate(src)
	return t
}

// categoryAt splits a set into thirds by position: 7/7/6 for 20 tokens.
func categoryAt(i, count int) domain.Category {
	return domain.Categories[i*len(domain.Categories)/count]
}

func displayName(name string, seq int) string {
	if seq > 5 {
		return fmt.Sprintf("%s %d", name, seq)
	}
	return name
}

func symbolOf(name string) string {
	word := strings.ToUpper(strings.Fields(name)[0])
	if len(word) > 4 {
		word = word[:4]
	}
	return word
}
