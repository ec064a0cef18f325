// Package pricepath generates synthetic price series using a
// momentum-biased random walk.
package pricepath

import (
	"fmt"
	"math"

	"token-pulse/internal/randsrc"
)

// FloorRatio is the minimum price relative to the base price.
const FloorRatio = 0.10

// Walk tuning.
const (
	reversalMinSteps    = 3   // steps since the last reversal before one may trigger
	reversalMomentum    = 2.0 // |momentum| above which a reversal triggers
	momentumBias        = 0.3 // weight of momentum when choosing direction
	momentumThreshold   = 0.5 // |momentum*bias| above which direction follows momentum
	momentumDecay       = 0.6
	momentumGain        = 0.3
	spikeProbability    = 0.1 // ×5 move
	largeMoveCumulative = 0.3 // ×3 move when roll in [spike, this)
)

// Band is a per-step volatility range in percent.
type Band struct {
	MinPct float64
	MaxPct float64
}

// Generate returns points successive prices starting from basePrice.
//
// Each step draws a volatility from band scaled by multiplier, picks a
// direction (forced reversal after a sustained run, otherwise momentum or a
// coin flip), layers a ×5/×3/×1 move multiplier, and applies the signed
// percentage. Prices never drop below FloorRatio×basePrice. No ceiling is
// applied here.
//
// Invalid inputs are programming errors and panic.
func Generate(src randsrc.Source, basePrice float64, points int, band Band, multiplier float64) []float64 {
	if err := validate(basePrice, points, band, multiplier); err != nil {
		panic(err)
	}

	history := make([]float64, 0, points)
	floor := basePrice * FloorRatio
	price := basePrice
	momentum := 0.0
	sinceReversal := 0

	for i := 0; i < points; i++ {
		volatility := randsrc.Between(src, band.MinPct, band.MaxPct) * multiplier
		factor := momentum * momentumBias

		sinceReversal++
		var direction float64
		if sinceReversal > reversalMinSteps && math.Abs(momentum) > reversalMomentum {
			direction = -sign(momentum)
			sinceReversal = 0
			momentum = 0
		} else {
			coin := randsrc.Sign(src)
			if math.Abs(factor) > momentumThreshold {
				direction = sign(factor)
			} else {
				direction = coin
			}
		}

		changePct := direction * volatility * moveMultiplier(src.Float64())
		price *= 1 + changePct/100
		momentum = momentum*momentumDecay + changePct*momentumGain

		price = math.Max(floor, price)
		history = append(history, price)
	}

	return history
}

// moveMultiplier maps a uniform roll to the move-size tier.
func moveMultiplier(roll float64) float64 {
	switch {
	case roll < spikeProbability:
		return 5
	case roll < largeMoveCumulative:
		return 3
	default:
		return 1
	}
}

func sign(v float64) float64 {
	if v > 0 {
		return 1
	}
	return -1
}

func validate(basePrice float64, points int, band Band, multiplier float64) error {
	switch {
	case !(basePrice > 0) || math.IsInf(basePrice, 0):
		return fmt.Errorf("pricepath: base price must be positive and finite, got %v", basePrice)
	case points <= 0:
		return fmt.Errorf("pricepath: points must be positive, got %d", points)
	case band.MinPct < 0:
		return fmt.Errorf("pricepath: min volatility must be non-negative, got %v", band.MinPct)
	case band.MaxPct < band.MinPct:
		return fmt.Errorf("pricepath: max volatility %v below min %v", band.MaxPct, band.MinPct)
	case !(multiplier > 0):
		return fmt.Errorf("pricepath: volatility multiplier must be positive, got %v", multiplier)
	}
	return nil
}
