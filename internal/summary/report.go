// Package summary produces periodic digests of the live token set: top
// movers, trend breakdown and totals.
package summary

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"token-pulse/internal/domain"
	"token-pulse/internal/render"
)

// Mover is one token in a top movers list.
type Mover struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Change1h  float64 `json:"change_1h"`
	MarketCap float64 `json:"market_cap"`
}

// Report is a point-in-time digest of a session.
type Report struct {
	SessionID      string    `json:"session_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Ticks          uint64    `json:"ticks"`
	Tokens         int       `json:"tokens"`
	Up             int       `json:"up"`
	Down           int       `json:"down"`
	Neutral        int       `json:"neutral"`
	TotalMarketCap float64   `json:"total_market_cap"`
	TotalVolume    float64   `json:"total_volume"`
	TopGainers     []Mover   `json:"top_gainers"`
	TopLosers      []Mover   `json:"top_losers"`
}

// Build computes a report over tokens. Gainers have a positive 1h change,
// losers a negative one; each list holds at most topN entries.
func Build(sessionID string, ticks uint64, tokens []*domain.Token, topN int, at time.Time) Report {
	r := Report{
		SessionID:   sessionID,
		GeneratedAt: at,
		Ticks:       ticks,
		Tokens:      len(tokens),
	}

	movers := make([]Mover, 0, len(tokens))
	for _, t := range tokens {
		switch t.Trend {
		case domain.TrendUp:
			r.Up++
		case domain.TrendDown:
			r.Down++
		default:
			r.Neutral++
		}
		r.TotalMarketCap += t.MarketCap
		r.TotalVolume += t.Volume
		movers = append(movers, Mover{ID: t.ID, Symbol: t.Symbol, Change1h: t.PriceChange.H1, MarketCap: t.MarketCap})
	}

	sort.SliceStable(movers, func(i, j int) bool {
		return movers[i].Change1h > movers[j].Change1h
	})
	for _, m := range movers {
		if len(r.TopGainers) == topN || m.Change1h <= 0 {
			break
		}
		r.TopGainers = append(r.TopGainers, m)
	}
	for i := len(movers) - 1; i >= 0; i-- {
		m := movers[i]
		if len(r.TopLosers) == topN || m.Change1h >= 0 {
			break
		}
		r.TopLosers = append(r.TopLosers, m)
	}
	return r
}

// TopAbsChange returns the largest absolute 1h change among the movers.
func (r Report) TopAbsChange() float64 {
	top := 0.0
	for _, m := range r.TopGainers {
		top = math.Max(top, math.Abs(m.Change1h))
	}
	for _, m := range r.TopLosers {
		top = math.Max(top, math.Abs(m.Change1h))
	}
	return top
}

// String renders the report as a short multi-line digest.
func (r Report) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("session %s after %d ticks: %d tokens (%d up, %d down, %d neutral)\n",
		r.SessionID, r.Ticks, r.Tokens, r.Up, r.Down, r.Neutral))
	sb.WriteString(fmt.Sprintf("total market cap %s | total volume %s\n",
		render.Money(r.TotalMarketCap), render.Money(r.TotalVolume)))

	writeMovers(&sb, "gainers", r.TopGainers)
	writeMovers(&sb, "losers", r.TopLosers)
	return sb.String()
}

func writeMovers(sb *strings.Builder, label string, movers []Mover) {
	if len(movers) == 0 {
		sb.WriteString(fmt.Sprintf("%s: none\n", label))
		return
	}
	parts := make([]string, len(movers))
	for i, m := range movers {
		parts[i] = fmt.Sprintf("%s %s", m.Symbol, render.Percent(m.Change1h))
	}
	sb.WriteString(fmt.Sprintf("%s: %s\n", label, strings.Join(parts, ", ")))
}
