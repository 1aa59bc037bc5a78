// Package pricing implements closed-form option pricing (Black-Scholes) and
// the standard normal distribution primitives it is built on.
package pricing

import "math"

// Abramowitz & Stegun 26.2.17 rational polynomial coefficients.
// Absolute error is below 7.5e-8, which is sufficient for financial display
// precision. Do not swap for a coarser approximation.
const (
	asB1 = 0.31938153
	asB2 = -0.356563782
	asB3 = 1.781477937
	asB4 = -1.821255978
	asB5 = 1.330274429
	asP  = 0.2316419
)

// CDF returns the standard normal cumulative distribution function at x.
func CDF(x float64) float64 {
	if x < 0 {
		// Symmetry: N(-x) = 1 - N(x)
		return 1 - CDF(-x)
	}

	t := 1 / (1 + asP*x)
	poly := t * (asB1 + t*(asB2+t*(asB3+t*(asB4+t*asB5))))
	return 1 - PDF(x)*poly
}

// PDF returns the standard normal probability density function at x.
func PDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}
