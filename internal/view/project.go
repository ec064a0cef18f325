// Package view derives the displayed token sequence from the live set and
// holds the per-viewer presentation state.
package view

import (
	"sort"

	"token-pulse/internal/domain"
)

// Project returns the tokens matching filter, ordered by field and order.
// The input slice is not modified. An empty or unknown field keeps input
// order. Ties keep input order.
func Project(tokens []*domain.Token, filter domain.Filter, field domain.SortField, order domain.SortOrder) []*domain.Token {
	out := make([]*domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if t == nil {
			continue
		}
		if filter != "" && filter != domain.FilterAll && t.Category != domain.Category(filter) {
			continue
		}
		out = append(out, t)
	}

	key, ok := sortKey(field)
	if !ok {
		return out
	}

	desc := order != domain.SortAsc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return key(out[i]) > key(out[j])
		}
		return key(out[i]) < key(out[j])
	})
	return out
}

// sortKey returns the numeric accessor for field.
func sortKey(field domain.SortField) (func(*domain.Token) float64, bool) {
	switch field {
	case domain.SortMarketCap:
		return func(t *domain.Token) float64 { return t.MarketCap }, true
	case domain.SortLiquidity:
		return func(t *domain.Token) float64 { return t.Liquidity }, true
	case domain.SortVolume:
		return func(t *domain.Token) float64 { return t.Volume }, true
	case domain.SortTransactions:
		return func(t *domain.Token) float64 { return float64(t.Transactions.Total) }, true
	case domain.SortPriceChange:
		return func(t *domain.Token) float64 { return t.PriceChange.H1 }, true
	default:
		return nil, false
	}
}

// KnownSortField reports whether field orders the projection.
func KnownSortField(field domain.SortField) bool {
	_, ok := sortKey(field)
	return ok
}
