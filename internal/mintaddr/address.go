// Package mintaddr derives synthetic Solana-style mint addresses.
// Addresses are real ed25519 public keys encoded in base58, so they look and
// validate like on-chain mints without referring to any live account.
package mintaddr

import (
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"token-pulse/internal/randsrc"
)

// PublicKeySize is the length of a decoded address.
const PublicKeySize = 32

// Generate derives a fresh address from src.
func Generate(src randsrc.Source) string {
	seed := make([]byte, 64)
	for i := 0; i < len(seed); i += 8 {
		binary.LittleEndian.PutUint64(seed[i:], src.Uint64())
	}

	scalar, err := edwards25519.NewScalar().SetUniformBytes(seed)
	if err != nil {
		// seed is always 64 bytes
		panic(fmt.Sprintf("mintaddr: uniform scalar: %v", err))
	}

	point := new(edwards25519.Point).ScalarBaseMult(scalar)
	return base58.Encode(point.Bytes())
}

// IsOnCurve reports whether addr decodes to a valid ed25519 point.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != PublicKeySize {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// Short abbreviates an address for display, e.g. "7xKX…sAsU".
func Short(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:4] + "…" + addr[len(addr)-4:]
}
