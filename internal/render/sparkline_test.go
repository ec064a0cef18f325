package render

import (
	"testing"
	"unicode/utf8"
)

func TestSparkline_Scaling(t *testing.T) {
	got := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 0)
	if got != "▁▂▃▄▅▆▇█" {
		t.Errorf("unexpected sparkline %q", got)
	}
}

func TestSparkline_Flat(t *testing.T) {
	got := Sparkline([]float64{3, 3, 3}, 0)
	if got != "▄▄▄" {
		t.Errorf("unexpected flat sparkline %q", got)
	}
}

func TestSparkline_Width(t *testing.T) {
	series := make([]float64, 50)
	for i := range series {
		series[i] = float64(i)
	}

	got := Sparkline(series, 20)
	if n := utf8.RuneCountInString(got); n != 20 {
		t.Fatalf("expected 20 points, got %d", n)
	}
	// Newest points kept: the last one is the max.
	r, _ := utf8.DecodeLastRuneInString(got)
	if r != '█' {
		t.Errorf("expected last block to be full, got %q", r)
	}
}

func TestSparkline_Empty(t *testing.T) {
	if got := Sparkline(nil, 10); got != "" {
		t.Errorf("expected empty sparkline, got %q", got)
	}
}
