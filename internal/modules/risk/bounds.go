package risk

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/askourtis/payoff/internal/modules/payoff"
	"github.com/askourtis/payoff/internal/modules/positions"
)

// Bounds holds the exact maximum profit and maximum loss of a combined
// position set over the full price domain. Either value may be infinite.
type Bounds struct {
	MaxProfit float64
	MaxLoss   float64
}

// Compute finds the exact payoff extrema of a position set analytically,
// independent of any price grid.
//
// The combined expiration payoff is piecewise linear: stock legs are linear
// everywhere and each option leg has a single kink at its strike. The global
// extrema therefore occur either at a kink, at price 0, or in the limit
// price -> infinity. All legs are summed at each candidate price; legs are
// never evaluated independently, which is what makes multi-leg structures
// like synthetic stock come out right.
func Compute(posList []positions.Position) Bounds {
	if len(posList) == 0 {
		return Bounds{}
	}

	candidates := []float64{0}
	for _, pos := range posList {
		if pos.Type.IsOption() {
			candidates = append(candidates, pos.Strike)
		}
	}
	sort.Float64s(candidates)

	maxProfit := math.Inf(-1)
	maxLoss := math.Inf(1)
	consider := func(v float64) {
		if v > maxProfit {
			maxProfit = v
		}
		if v < maxLoss {
			maxLoss = v
		}
	}

	for _, price := range candidates {
		consider(payoff.Total(posList, price))
	}
	consider(upperBoundaryValue(posList))

	return Bounds{MaxProfit: maxProfit, MaxLoss: maxLoss}
}

// upperBoundaryValue evaluates the combined payoff in the limit
// price -> infinity.
//
// Stock legs and call legs grow without bound at slope qty (respectively
// qty * 100); put legs saturate at -costBasis * qty * 100 once intrinsic
// value vanishes. When the aggregate unbounded slope is nonzero the limit is
// +/- infinity, otherwise the finite sum of the saturated values plus the
// calls' and stock's finite contribution (which only exists when the slopes
// cancel exactly, e.g. long stock against short calls of matching size).
func upperBoundaryValue(posList []positions.Position) float64 {
	var slope float64
	for _, pos := range posList {
		switch pos.Type {
		case positions.Stock:
			slope += pos.Qty
		case positions.Call:
			slope += pos.Qty * payoff.ContractMultiplier
		}
	}

	if slope > 0 {
		return math.Inf(1)
	}
	if slope < 0 {
		return math.Inf(-1)
	}

	// Slopes cancel: the payoff is eventually constant. Evaluate past the
	// last kink, where every option is on its terminal linear piece.
	var lastKink float64
	for _, pos := range posList {
		if pos.Type.IsOption() && pos.Strike > lastKink {
			lastKink = pos.Strike
		}
	}
	return payoff.Total(posList, lastKink+1)
}

// MarshalJSON encodes infinite bounds as "Infinity"/"-Infinity" string
// sentinels so the payload survives JSON encoding; finite values stay
// numbers.
func (b Bounds) MarshalJSON() ([]byte, error) {
	encode := func(v float64) interface{} {
		switch {
		case math.IsInf(v, 1):
			return "Infinity"
		case math.IsInf(v, -1):
			return "-Infinity"
		default:
			return v
		}
	}
	return json.Marshal(map[string]interface{}{
		"max_profit": encode(b.MaxProfit),
		"max_loss":   encode(b.MaxLoss),
	})
}

// UnmarshalJSON reverses the sentinel encoding of MarshalJSON
func (b *Bounds) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decode := func(msg json.RawMessage) (float64, error) {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			switch s {
			case "Infinity":
				return math.Inf(1), nil
			case "-Infinity":
				return math.Inf(-1), nil
			default:
				return strconv.ParseFloat(s, 64)
			}
		}
		var f float64
		err := json.Unmarshal(msg, &f)
		return f, err
	}

	if msg, ok := raw["max_profit"]; ok {
		v, err := decode(msg)
		if err != nil {
			return err
		}
		b.MaxProfit = v
	}
	if msg, ok := raw["max_loss"]; ok {
		v, err := decode(msg)
		if err != nil {
			return err
		}
		b.MaxLoss = v
	}
	return nil
}
