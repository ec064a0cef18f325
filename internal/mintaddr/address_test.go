package mintaddr

import (
	"testing"

	"github.com/mr-tron/base58"

	"token-pulse/internal/randsrc"
)

func TestGenerate_ValidPoint(t *testing.T) {
	src := randsrc.NewSeeded(5)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		addr := Generate(src)
		if !IsOnCurve(addr) {
			t.Fatalf("address %s is not on curve", addr)
		}
		if seen[addr] {
			t.Fatalf("duplicate address %s", addr)
		}
		seen[addr] = true
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(randsrc.NewSeeded(11))
	b := Generate(randsrc.NewSeeded(11))
	if a != b {
		t.Errorf("expected same address for same seed, got %s and %s", a, b)
	}
}

func TestIsOnCurve_Rejects(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"short", base58.Encode([]byte{1, 2, 3})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if IsOnCurve(tt.addr) {
				t.Errorf("expected %q to be rejected", tt.addr)
			}
		})
	}
}

func TestShort(t *testing.T) {
	if got := Short("abc"); got != "abc" {
		t.Errorf("expected unchanged short address, got %s", got)
	}
	if got := Short("ABCDEFGHIJKLMNOP"); got != "ABCD…MNOP" {
		t.Errorf("unexpected abbreviation %s", got)
	}
}
