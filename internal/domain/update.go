package domain

// TokenUpdate is a partial set of token fields produced by one tick.
// Nil fields are left untouched when merged.
type TokenUpdate struct {
	MarketCap    *float64
	Liquidity    *float64
	Volume       *float64
	Transactions *Transactions
	PriceChange  *PriceChanges
	PriceHistory *PriceHistory
	Holders      *int

	Top10Holders   *float64
	DevHolders     *float64
	SnipersHolders *float64
	Insiders       *float64
	Bundlers       *float64

	Trend *Trend
}

// Empty reports whether the update carries no fields.
func (u *TokenUpdate) Empty() bool {
	return u == nil || *u == TokenUpdate{}
}

// TouchesPrice reports whether the update carries any price-derived field.
func (u *TokenUpdate) TouchesPrice() bool {
	if u == nil {
		return false
	}
	return u.PriceChange != nil || u.PriceHistory != nil || u.MarketCap != nil || u.Trend != nil
}

// ApplyTo merges the non-nil fields of u into t.
// Price histories are copied so t never aliases the update.
func (u *TokenUpdate) ApplyTo(t *Token) {
	if u == nil || t == nil {
		return
	}
	if u.MarketCap != nil {
		t.MarketCap = *u.MarketCap
	}
	if u.Liquidity != nil {
		t.Liquidity = *u.Liquidity
	}
	if u.Volume != nil {
		t.Volume = *u.Volume
	}
	if u.Transactions != nil {
		t.Transactions = *u.Transactions
	}
	if u.PriceChange != nil {
		t.PriceChange = *u.PriceChange
	}
	if u.PriceHistory != nil {
		t.PriceHistory = u.PriceHistory.Clone()
	}
	if u.Holders != nil {
		t.Holders = *u.Holders
	}
	if u.Top10Holders != nil {
		t.Top10Holders = *u.Top10Holders
	}
	if u.DevHolders != nil {
		t.DevHolders = *u.DevHolders
	}
	if u.SnipersHolders != nil {
		t.SnipersHolders = *u.SnipersHolders
	}
	if u.Insiders != nil {
		t.Insiders = *u.Insiders
	}
	if u.Bundlers != nil {
		t.Bundlers = *u.Bundlers
	}
	if u.Trend != nil {
		t.Trend = *u.Trend
	}
}
