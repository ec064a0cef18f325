package render

import (
	"fmt"
	"strings"

	"token-pulse/internal/domain"
	"token-pulse/internal/mintaddr"
	"token-pulse/internal/view"
)

// Frame is everything one screen shows.
type Frame struct {
	SessionID string
	Tick      uint64
	View      view.State
	Tokens    []*domain.Token // already projected
}

// SparkWidth is the number of history points drawn per row.
const SparkWidth = 20

var trendMarks = map[domain.Trend]string{
	domain.TrendUp:      "▲",
	domain.TrendDown:    "▼",
	domain.TrendNeutral: "•",
}

// RenderFrame renders the header, the token table and, when the modal is
// open, the detail panel of the selected token.
func RenderFrame(f Frame) string {
	var sb strings.Builder
	tf := f.View.Timeframe
	if !tf.Valid() {
		tf = domain.Timeframe1h
	}

	// Header
	sort := "none"
	if f.View.SortField != domain.SortNone {
		sort = fmt.Sprintf("%s %s", f.View.SortField, f.View.SortOrder)
	}
	sb.WriteString(fmt.Sprintf("session %s | tick %d | filter %s | sort %s | timeframe %s\n\n",
		shortID(f.SessionID), f.Tick, f.View.Filter, sort, tf))

	// Table
	sb.WriteString(fmt.Sprintf("  %-22s %-9s %12s %9s %9s %9s %9s %11s %8s %s  %s\n",
		"TOKEN", "CATEGORY", "PRICE", "CHG "+string(tf), "MCAP", "LIQ", "VOL", "TXNS B/S", "HOLDERS", "T", "CHART"))
	if len(f.Tokens) == 0 {
		sb.WriteString("  no tokens\n")
	}
	for _, t := range f.Tokens {
		price := "-"
		if last, ok := t.PriceHistory.Last(tf); ok {
			price = Price(last)
		}
		sb.WriteString(fmt.Sprintf("%s %-22s %-9s %12s %9s %9s %9s %11s %8s %s  %s\n",
			marker(f.View, t.ID),
			truncate(fmt.Sprintf("%s (%s)", t.Name, t.Symbol), 22),
			t.Category,
			price,
			Percent(t.PriceChange.Get(tf)),
			Money(t.MarketCap),
			Money(t.Liquidity),
			Money(t.Volume),
			fmt.Sprintf("%d/%d", t.Transactions.Buys, t.Transactions.Sells),
			Count(t.Holders),
			trendMarks[t.Trend],
			Sparkline(t.PriceHistory.Get(tf), SparkWidth)))
	}

	if f.View.ModalOpen {
		for _, t := range f.Tokens {
			if t.ID == f.View.SelectedID {
				sb.WriteString("\n")
				sb.WriteString(RenderDetail(t, tf))
				break
			}
		}
	}

	return sb.String()
}

// RenderDetail renders the buy panel of one token.
func RenderDetail(t *domain.Token, tf domain.Timeframe) string {
	var sb strings.Builder

	paid := "no"
	if t.Paid {
		paid = "yes"
	}

	sb.WriteString(fmt.Sprintf("== %s (%s) ==\n", t.Name, t.Symbol))
	sb.WriteString(fmt.Sprintf("mint %s | age %s | paid %s | trend %s\n", mintaddr.Short(t.Mint), t.Age, paid, t.Trend))
	sb.WriteString(fmt.Sprintf("change 1m %s | 5m %s | 30m %s | 1h %s\n",
		Percent(t.PriceChange.M1), Percent(t.PriceChange.M5), Percent(t.PriceChange.M30), Percent(t.PriceChange.H1)))
	sb.WriteString(fmt.Sprintf("top10 %.1f%% | dev %.1f%% | snipers %.1f%% | insiders %.1f%% | bundlers %.1f%%\n",
		t.Top10Holders, t.DevHolders, t.SnipersHolders, t.Insiders, t.Bundlers))
	sb.WriteString(fmt.Sprintf("holders %s | other %s | txns %s\n",
		Count(t.Holders), Count(t.OtherCount), Count(t.Transactions.Total)))
	sb.WriteString(fmt.Sprintf("%s %s\n", tf, Sparkline(t.PriceHistory.Get(tf), 0)))
	sb.WriteString("[buy is a preview; no order is placed]\n")
	return sb.String()
}

func marker(s view.State, id string) string {
	switch id {
	case s.SelectedID:
		return "▶"
	case s.HoveredID:
		return "›"
	default:
		return " "
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
