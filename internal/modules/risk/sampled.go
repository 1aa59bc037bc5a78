package risk

// SampledBounds reports the best and worst P&L observed on a finite curve.
//
// This is the grid-bounded display figure only: positions with unbounded
// upside or downside are clipped at the grid edges, so it must never be used
// where the exact Compute bounds are required.
func SampledBounds(pnl []float64) Bounds {
	if len(pnl) == 0 {
		return Bounds{}
	}

	b := Bounds{MaxProfit: pnl[0], MaxLoss: pnl[0]}
	for _, v := range pnl[1:] {
		if v > b.MaxProfit {
			b.MaxProfit = v
		}
		if v < b.MaxLoss {
			b.MaxLoss = v
		}
	}
	return b
}
