package payoff

import (
	"math"

	"github.com/askourtis/payoff/internal/modules/positions"
)

// ContractMultiplier is the share count behind one option contract
const ContractMultiplier = 100

// Curve holds the expiration P&L series over a price grid, with the
// per-category breakdown used for multi-line display. All series share the
// same grid; StockOnly[i] + OptionsOnly[i] == Combined[i] at every index.
type Curve struct {
	Prices      []float64 `json:"prices"`
	Combined    []float64 `json:"combined"`
	StockOnly   []float64 `json:"stock_only"`
	OptionsOnly []float64 `json:"options_only"`
}

// LegPnL evaluates one leg's expiration P&L at a single price.
//
// The universal formula (exit - entry) * qty handles long and short legs
// alike: for options exit is intrinsic value and the contract multiplier
// applies.
func LegPnL(pos positions.Position, price float64) float64 {
	switch pos.Type {
	case positions.Stock:
		return (price - pos.CostBasis) * pos.Qty
	case positions.Call:
		intrinsic := math.Max(0, price-pos.Strike)
		return (intrinsic - pos.CostBasis) * pos.Qty * ContractMultiplier
	case positions.Put:
		intrinsic := math.Max(0, pos.Strike-price)
		return (intrinsic - pos.CostBasis) * pos.Qty * ContractMultiplier
	default:
		return 0
	}
}

// Evaluate computes the combined and per-category P&L curves for a position
// list over a price grid.
func Evaluate(posList []positions.Position, prices []float64) Curve {
	c := Curve{
		Prices:      prices,
		Combined:    make([]float64, len(prices)),
		StockOnly:   make([]float64, len(prices)),
		OptionsOnly: make([]float64, len(prices)),
	}

	for _, pos := range posList {
		for i, price := range prices {
			pnl := LegPnL(pos, price)
			if pos.Type == positions.Stock {
				c.StockOnly[i] += pnl
			} else {
				c.OptionsOnly[i] += pnl
			}
		}
	}

	// The combined series is defined as the sum of the category series so
	// the decomposition invariant holds exactly, not just within epsilon.
	for i := range prices {
		c.Combined[i] = c.StockOnly[i] + c.OptionsOnly[i]
	}

	return c
}

// Total evaluates the combined P&L of all legs at one price
func Total(posList []positions.Position, price float64) float64 {
	var sum float64
	for _, pos := range posList {
		sum += LegPnL(pos, price)
	}
	return sum
}
