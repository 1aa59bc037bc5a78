// Package payoff builds expiration P&L curves for combined stock and option
// positions over a price grid.
package payoff

import (
	"gonum.org/v1/gonum/floats"

	"github.com/askourtis/payoff/internal/modules/positions"
)

// GridPoints is the fixed number of samples in a price grid.
// Both endpoints are included; the step is uniform.
const GridPoints = 200

// PriceRange produces the price grid used for curve evaluation.
//
// With option legs present the grid spans all strikes with 20% padding and
// the current price with 30% padding, whichever is wider on each side. With
// stock only, it spans currentPrice +/- 30%.
func PriceRange(posList []positions.Position, currentPrice float64) []float64 {
	low := currentPrice * 0.7
	high := currentPrice * 1.3

	minStrike, maxStrike, hasStrikes := strikeBounds(posList)
	if hasStrikes {
		if s := minStrike * 0.8; s < low {
			low = s
		}
		if s := maxStrike * 1.2; s > high {
			high = s
		}
	}

	return floats.Span(make([]float64, GridPoints), low, high)
}

// strikeBounds returns the min and max strike across option legs
func strikeBounds(posList []positions.Position) (float64, float64, bool) {
	var minStrike, maxStrike float64
	found := false
	for _, pos := range posList {
		if !pos.Type.IsOption() {
			continue
		}
		if !found {
			minStrike, maxStrike = pos.Strike, pos.Strike
			found = true
			continue
		}
		if pos.Strike < minStrike {
			minStrike = pos.Strike
		}
		if pos.Strike > maxStrike {
			maxStrike = pos.Strike
		}
	}
	return minStrike, maxStrike, found
}
