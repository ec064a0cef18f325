// Package render draws the token table for terminal viewers.
package render

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Money formats v as dollars, compacting thousands and above: $45.2K, $1.5M, $2.3B.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + compact(v)
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent formats a signed percentage with two decimals: +1.23%, -0.50%.
func Percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Price formats a per-unit price with enough digits for sub-cent values.
func Price(v float64) string {
	return "$" + humanize.FormatFloat("#,###.######", v)
}

// compactUnits is ordered smallest first.
var compactUnits = []struct {
	size   float64
	suffix string
}{
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
	{1e12, "T"},
}

// compact rounds before settling on a unit, so 999,950 becomes 1.0M.
func compact(v float64) string {
	if math.Round(v*100)/100 < 1000 {
		return fmt.Sprintf("%.2f", v)
	}
	var scaled float64
	var suffix string
	for _, u := range compactUnits {
		scaled, suffix = math.Round(v/u.size*10)/10, u.suffix
		if scaled < 1000 {
			break
		}
	}
	return fmt.Sprintf("%.1f%s", scaled, suffix)
}
