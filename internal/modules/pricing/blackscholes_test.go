package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceKnownValues(t *testing.T) {
	// Standard textbook ATM values: S=100, K=100, T=1y, r=5%, sigma=20%
	assert.InDelta(t, 10.45, Price(Call, 100, 100, 1, 0.05, 0.20), 0.01)
	assert.InDelta(t, 5.57, Price(Put, 100, 100, 1, 0.05, 0.20), 0.01)
}

func TestPutCallParity(t *testing.T) {
	cases := []struct {
		S, K, T, r, sigma float64
	}{
		{100, 100, 1, 0.05, 0.20},
		{100, 120, 0.5, 0.03, 0.45},
		{250, 180, 2, 0.01, 0.10},
		{42, 40, 0.25, 0.10, 0.0},
		{15, 60, 3, 0.0, 0.80},
	}
	for _, tc := range cases {
		call := Price(Call, tc.S, tc.K, tc.T, tc.r, tc.sigma)
		put := Price(Put, tc.S, tc.K, tc.T, tc.r, tc.sigma)
		parity := tc.S - tc.K*math.Exp(-tc.r*tc.T)
		assert.InDelta(t, parity, call-put, 1e-9, "S=%v K=%v", tc.S, tc.K)
	}
}

func TestPriceAtExpiry(t *testing.T) {
	// T <= 0 reduces exactly to intrinsic value, no discounting
	assert.Equal(t, 10.0, Price(Call, 110, 100, 0, 0.05, 0.20))
	assert.Equal(t, 0.0, Price(Call, 90, 100, 0, 0.05, 0.20))
	assert.Equal(t, 10.0, Price(Put, 90, 100, 0, 0.05, 0.20))
	assert.Equal(t, 0.0, Price(Put, 110, 100, -0.5, 0.05, 0.20))
}

func TestPriceZeroVolatility(t *testing.T) {
	// sigma == 0 is the deterministic discounted payoff
	discounted := 100 * math.Exp(-0.05)
	assert.InDelta(t, 110-discounted, Price(Call, 110, 100, 1, 0.05, 0), 1e-12)
	assert.Equal(t, 0.0, Price(Call, 90, 100, 1, 0.05, 0))
	assert.InDelta(t, discounted-80, Price(Put, 80, 100, 1, 0.05, 0), 1e-12)
}

// Non-physical inputs are an undefined-behavior boundary: the pricer does not
// validate them and NaN propagation is the documented outcome.
func TestPriceInvalidDomainPropagatesNaN(t *testing.T) {
	assert.True(t, math.IsNaN(Price(Call, -5, 100, 1, 0.05, 0.20)))
	assert.True(t, math.IsNaN(Price(Put, 100, -100, 1, 0.05, 0.20)))
}

func TestGreeksKnownValues(t *testing.T) {
	g := ComputeGreeks(Call, 100, 100, 1, 0.05, 0.20)
	assert.InDelta(t, 0.6368, g.Delta, 0.01)
	assert.InDelta(t, 0.3752, g.Vega, 0.01)

	p := ComputeGreeks(Put, 100, 100, 1, 0.05, 0.20)
	// Call and put share gamma and vega
	assert.InDelta(t, g.Gamma, p.Gamma, 1e-12)
	assert.InDelta(t, g.Vega, p.Vega, 1e-12)
	// Put delta = call delta - 1
	assert.InDelta(t, g.Delta-1, p.Delta, 1e-12)
}

func TestGreeksAtExpiry(t *testing.T) {
	itm := ComputeGreeks(Call, 110, 100, 0, 0.05, 0.20)
	assert.Equal(t, Greeks{Delta: 1}, itm)

	otm := ComputeGreeks(Call, 90, 100, 0, 0.05, 0.20)
	assert.Equal(t, Greeks{}, otm)

	itmPut := ComputeGreeks(Put, 90, 100, 0, 0.05, 0.20)
	assert.Equal(t, Greeks{Delta: -1}, itmPut)
}

func TestGreeksZeroVolatility(t *testing.T) {
	// sigma == 0 with time left must stay finite: gamma and vega vanish,
	// delta and the carry terms collapse to the forward-moneyness indicator.
	discount := 100 * math.Exp(-0.05)

	itm := ComputeGreeks(Call, 110, 100, 1, 0.05, 0)
	assert.False(t, math.IsNaN(itm.Gamma))
	assert.Equal(t, 1.0, itm.Delta)
	assert.Equal(t, 0.0, itm.Gamma)
	assert.Equal(t, 0.0, itm.Vega)
	assert.InDelta(t, -0.05*discount/365, itm.Theta, 1e-12)
	assert.InDelta(t, discount/100, itm.Rho, 1e-12)

	otm := ComputeGreeks(Call, 90, 100, 1, 0.05, 0)
	assert.Equal(t, Greeks{}, otm)

	itmPut := ComputeGreeks(Put, 90, 100, 1, 0.05, 0)
	assert.Equal(t, -1.0, itmPut.Delta)
	assert.InDelta(t, 0.05*discount/365, itmPut.Theta, 1e-12)
	assert.InDelta(t, -discount/100, itmPut.Rho, 1e-12)

	// Exactly at the forward both d terms tend to zero, leaving 0.5
	atForward := ComputeGreeks(Call, discount, 100, 1, 0.05, 0)
	assert.Equal(t, 0.5, atForward.Delta)
}

func TestThetaIsNegativeForLongOptions(t *testing.T) {
	g := ComputeGreeks(Call, 100, 100, 0.5, 0.05, 0.30)
	assert.Less(t, g.Theta, 0.0)
}
