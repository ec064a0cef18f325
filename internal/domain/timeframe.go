package domain

// Timeframe is one of the fixed chart lookback windows.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
)

// Timeframes lists every timeframe from shortest to longest.
var Timeframes = []Timeframe{Timeframe1m, Timeframe5m, Timeframe30m, Timeframe1h}

// Valid reports whether tf is a known timeframe.
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe1m, Timeframe5m, Timeframe30m, Timeframe1h:
		return true
	default:
		return false
	}
}

// Share is the fraction of the 1h change attributed to this timeframe.
// All timeframe changes derive from one 1h shock: 1m=0.1, 5m=0.3, 30m=0.7, 1h=1.
func (tf Timeframe) Share() float64 {
	switch tf {
	case Timeframe1m:
		return 0.1
	case Timeframe5m:
		return 0.3
	case Timeframe30m:
		return 0.7
	default:
		return 1.0
	}
}

// PriceChanges holds the signed percentage change per timeframe.
type PriceChanges struct {
	M1  float64 `json:"1m"`
	M5  float64 `json:"5m"`
	M30 float64 `json:"30m"`
	H1  float64 `json:"1h"`
}

// DerivePriceChanges builds all timeframe changes from a single 1h change.
func DerivePriceChanges(change1h float64) PriceChanges {
	return PriceChanges{
		M1:  change1h * Timeframe1m.Share(),
		M5:  change1h * Timeframe5m.Share(),
		M30: change1h * Timeframe30m.Share(),
		H1:  change1h,
	}
}

// Get returns the change for tf.
func (p PriceChanges) Get(tf Timeframe) float64 {
	switch tf {
	case Timeframe1m:
		return p.M1
	case Timeframe5m:
		return p.M5
	case Timeframe30m:
		return p.M30
	default:
		return p.H1
	}
}

// PriceHistory holds one bounded price series per timeframe, oldest first.
type PriceHistory struct {
	M1  []float64 `json:"1m"`
	M5  []float64 `json:"5m"`
	M30 []float64 `json:"30m"`
	H1  []float64 `json:"1h"`
}

// Get returns the series for tf. The returned slice aliases the history.
func (h PriceHistory) Get(tf Timeframe) []float64 {
	switch tf {
	case Timeframe1m:
		return h.M1
	case Timeframe5m:
		return h.M5
	case Timeframe30m:
		return h.M30
	default:
		return h.H1
	}
}

// Set replaces the series for tf.
func (h *PriceHistory) Set(tf Timeframe, series []float64) {
	switch tf {
	case Timeframe1m:
		h.M1 = series
	case Timeframe5m:
		h.M5 = series
	case Timeframe30m:
		h.M30 = series
	default:
		h.H1 = series
	}
}

// Last returns the most recent price for tf and false when the series is empty.
func (h PriceHistory) Last(tf Timeframe) (float64, bool) {
	s := h.Get(tf)
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// Clone deep-copies every series.
func (h PriceHistory) Clone() PriceHistory {
	return PriceHistory{
		M1:  cloneSeries(h.M1),
		M5:  cloneSeries(h.M5),
		M30: cloneSeries(h.M30),
		H1:  cloneSeries(h.H1),
	}
}

// AppendBounded appends v to series and keeps only the newest window points.
// The input slice is not modified.
func AppendBounded(series []float64, v float64, window int) []float64 {
	n := len(series) + 1
	start := 0
	if window > 0 && n > window {
		start = n - window
	}
	out := make([]float64, 0, n-start)
	if start < len(series) {
		out = append(out, series[start:]...)
	}
	return append(out, v)
}

func cloneSeries(s []float64) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
