package render

import (
	"math"
	"strings"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws series scaled between its own min and max, keeping the
// newest width points. A flat series draws at mid height.
func Sparkline(series []float64, width int) string {
	if width > 0 && len(series) > width {
		series = series[len(series)-width:]
	}
	if len(series) == 0 {
		return ""
	}

	lo, hi := series[0], series[0]
	for _, v := range series[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var sb strings.Builder
	top := len(sparkBlocks) - 1
	for _, v := range series {
		idx := top / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		sb.WriteRune(sparkBlocks[idx])
	}
	return sb.String()
}
