package pricing

import "math"

// OptionType distinguishes calls from puts
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Greeks holds the first-order sensitivities of an option price.
// Theta is per calendar day, vega per vol point (1.00 of sigma expressed
// as %), rho per 1% rate change.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// Price returns the Black-Scholes value of a European option.
//
// S is the spot price, K the strike, T years to expiry, r the annualized
// risk-free rate (decimal) and sigma the annualized volatility (decimal).
//
// Edge cases are checked before the general formula, in this order:
//  1. T <= 0: intrinsic value, no discounting (expired / at expiry)
//  2. sigma == 0: deterministic discounted payoff
//
// S <= 0 or K <= 0 is outside the numeric domain. The function does not
// validate those inputs; the log term produces NaN and it propagates to the
// caller. Validate upstream if a different failure mode is needed.
func Price(typ OptionType, S, K, T, r, sigma float64) float64 {
	if T <= 0 {
		if typ == Call {
			return math.Max(0, S-K)
		}
		return math.Max(0, K-S)
	}

	if sigma == 0 {
		discounted := K * math.Exp(-r*T)
		if typ == Call {
			return math.Max(0, S-discounted)
		}
		return math.Max(0, discounted-S)
	}

	d1, d2 := dValues(S, K, T, r, sigma)
	if typ == Call {
		return S*CDF(d1) - K*math.Exp(-r*T)*CDF(d2)
	}
	return K*math.Exp(-r*T)*CDF(-d2) - S*CDF(-d1)
}

// ComputeGreeks returns delta, gamma, theta, vega and rho for an option.
// At or past expiry (T <= 0) delta collapses to +/-1 when in the money and 0
// otherwise; all other greeks are 0. With sigma == 0 the price is the
// deterministic discounted payoff, so the greeks take their zero-vol limit
// values instead of dividing by a zero sigma.
func ComputeGreeks(typ OptionType, S, K, T, r, sigma float64) Greeks {
	if T <= 0 {
		var delta float64
		if typ == Call && S > K {
			delta = 1
		} else if typ == Put && S < K {
			delta = -1
		}
		return Greeks{Delta: delta}
	}

	if sigma == 0 {
		return zeroVolGreeks(typ, S, K, T, r)
	}

	d1, d2 := dValues(S, K, T, r, sigma)
	sqrtT := math.Sqrt(T)
	discount := K * math.Exp(-r*T)

	g := Greeks{
		Gamma: PDF(d1) / (S * sigma * sqrtT),
		Vega:  S * sqrtT * PDF(d1) / 100,
	}

	if typ == Call {
		g.Delta = CDF(d1)
		g.Theta = (-S*sigma*PDF(d1)/(2*sqrtT) - r*discount*CDF(d2)) / 365
		g.Rho = discount * T * CDF(d2) / 100
	} else {
		g.Delta = CDF(d1) - 1
		g.Theta = (-S*sigma*PDF(d1)/(2*sqrtT) + r*discount*CDF(-d2)) / 365
		g.Rho = -discount * T * CDF(-d2) / 100
	}

	return g
}

// zeroVolGreeks is the sigma -> 0 limit of the general formulas. Both d1 and
// d2 go to +/- infinity with the sign of ln(S/K) + rT, so CDF(d1) and CDF(d2)
// collapse to an in-the-money-forward indicator (0.5 exactly at the forward,
// where d1 and d2 both tend to zero); PDF(d1) vanishes, taking gamma, vega
// and the diffusion term of theta with it.
func zeroVolGreeks(typ OptionType, S, K, T, r float64) Greeks {
	discount := K * math.Exp(-r*T)

	var itm float64
	switch {
	case S > discount:
		itm = 1
	case S == discount:
		itm = 0.5
	}

	if typ == Call {
		return Greeks{
			Delta: itm,
			Theta: -r * discount * itm / 365,
			Rho:   discount * T * itm / 100,
		}
	}
	return Greeks{
		Delta: itm - 1,
		Theta: r * discount * (1 - itm) / 365,
		Rho:   -discount * T * (1 - itm) / 100,
	}
}

// dValues computes the d1/d2 terms of the Black-Scholes formula
func dValues(S, K, T, r, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+sigma*sigma/2)*T) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}
