package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestCDFAtZero(t *testing.T) {
	assert.Equal(t, 0.5, CDF(0))
}

func TestCDFSymmetry(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1, 1.96, 2.5, 3.7, 10} {
		assert.InDelta(t, 1.0, CDF(x)+CDF(-x), 1e-12, "x=%v", x)
	}
}

func TestCDFMonotonic(t *testing.T) {
	prev := CDF(-8)
	for x := -7.9; x <= 8; x += 0.1 {
		cur := CDF(x)
		assert.GreaterOrEqual(t, cur, prev, "x=%v", x)
		prev = cur
	}
}

// The Abramowitz-Stegun approximation should stay within ~1e-7 of the exact
// erf-based normal CDF across the range that matters for pricing.
func TestCDFMatchesReference(t *testing.T) {
	ref := distuv.Normal{Mu: 0, Sigma: 1}
	for x := -6.0; x <= 6.0; x += 0.01 {
		assert.InDelta(t, ref.CDF(x), CDF(x), 1e-6, "x=%v", x)
	}
}

func TestPDF(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), PDF(0), 1e-15)

	ref := distuv.Normal{Mu: 0, Sigma: 1}
	for _, x := range []float64{-3, -1.5, 0.25, 2, 4} {
		assert.InDelta(t, ref.Prob(x), PDF(x), 1e-12, "x=%v", x)
	}
}
