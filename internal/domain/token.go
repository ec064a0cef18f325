package domain

// Token is a single listing on the discovery dashboard.
// Market fields, counters, holder metrics, price changes and histories are
// mutated in place by the market tick engine; identity and descriptive
// fields are fixed at creation.
type Token struct {
	ID        string   `json:"id"`         // stable, never reused within a process
	Name      string   `json:"name"`       // display name
	Symbol    string   `json:"symbol"`     // upper-case ticker, max 4 chars
	Image     string   `json:"image"`      // avatar URL
	Mint      string   `json:"mint"`       // synthetic base58 mint address
	Category  Category `json:"category"`   // new | final | migrated
	Age       string   `json:"age"`        // e.g. "42m"
	Paid      bool     `json:"paid"`       // listing paid flag
	BasePrice float64  `json:"base_price"` // nominal price at creation, history floor anchor

	MarketCap float64 `json:"market_cap"`
	Liquidity float64 `json:"liquidity"`
	Volume    float64 `json:"volume"`

	Transactions Transactions `json:"transactions"`
	PriceChange  PriceChanges `json:"price_change"`
	PriceHistory PriceHistory `json:"price_history"`

	Snipers        float64 `json:"snipers"`         // percent
	Holders        int     `json:"holders"`         // holder count, non-decreasing
	OtherCount     int     `json:"other_count"`     // non-classified holder count
	Top10Holders   float64 `json:"top10_holders"`   // percent
	DevHolders     float64 `json:"dev_holders"`     // percent
	SnipersHolders float64 `json:"snipers_holders"` // percent
	Insiders       float64 `json:"insiders"`        // percent
	Bundlers       float64 `json:"bundlers"`        // percent

	Trend Trend `json:"trend"`
}

// Transactions holds cumulative trade counters. Total is always Buys+Sells
// accumulated from creation.
type Transactions struct {
	Total int `json:"total"`
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Category groups tokens into dashboard tabs.
type Category string

const (
	CategoryNew      Category = "new"
	CategoryFinal    Category = "final"
	CategoryMigrated Category = "migrated"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryNew, CategoryFinal, CategoryMigrated}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryNew, CategoryFinal, CategoryMigrated:
		return true
	default:
		return false
	}
}

// Trend is the three-way direction classification of the latest 1h change.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// ClassifyTrend maps a 1h percentage change to a Trend.
// Values exactly at ±threshold are neutral.
func ClassifyTrend(change1h, threshold float64) Trend {
	switch {
	case change1h > threshold:
		return TrendUp
	case change1h < -threshold:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// Clone returns a deep copy of the token. Price histories are copied so the
// clone can be handed to readers while the original keeps being mutated.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	c.PriceHistory = t.PriceHistory.Clone()
	return &c
}

// HolderPercentages returns pointers to every percentage-bounded holder metric.
// Used by the tick engine to jitter and clamp them uniformly.
func (t *Token) HolderPercentages() []*float64 {
	return []*float64{
		&t.Top10Holders,
		&t.DevHolders,
		&t.SnipersHolders,
		&t.Insiders,
		&t.Bundlers,
	}
}
