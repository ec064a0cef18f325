package domain

// SortField names a numeric column the table can be ordered by.
type SortField string

const (
	SortNone         SortField = ""
	SortMarketCap    SortField = "market_cap"
	SortLiquidity    SortField = "liquidity"
	SortVolume       SortField = "volume"
	SortTransactions SortField = "transactions"
	SortPriceChange  SortField = "price_change" // 1h change
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Flip returns the opposite direction.
func (o SortOrder) Flip() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// Filter selects a category tab; FilterAll disables filtering.
type Filter string

// FilterAll keeps every token.
const FilterAll Filter = "all"

// Valid reports whether f is "all" or a known category.
func (f Filter) Valid() bool {
	return f == FilterAll || Category(f).Valid()
}
