// Package risk derives breakeven prices and profit/loss bounds from combined
// position payoffs.
package risk

// Breakevens scans a P&L curve for zero crossings and interpolates the
// crossing price of each one.
//
// A pair of adjacent samples counts as a crossing when the sign changes
// (zero itself counts as non-negative). Pairs with v1 == v2 are degenerate
// (flat zero segments) and skipped to avoid division by zero. Results come
// back in grid order; nothing is deduplicated beyond one price per sign
// change.
func Breakevens(prices, pnl []float64) []float64 {
	var result []float64
	for i := 0; i+1 < len(pnl) && i+1 < len(prices); i++ {
		v1, v2 := pnl[i], pnl[i+1]

		crosses := (v1 >= 0 && v2 < 0) || (v1 < 0 && v2 >= 0)
		if !crosses || v1 == v2 {
			continue
		}

		p1, p2 := prices[i], prices[i+1]
		result = append(result, p1+(0-v1)*(p2-p1)/(v2-v1))
	}
	return result
}
