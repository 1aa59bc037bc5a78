// Package positions holds the portfolio position model and the tolerant
// broker-export normalizer that produces it.
package positions

import (
	"time"
)

// PositionType is the instrument kind of a portfolio leg
type PositionType string

const (
	Stock PositionType = "stock"
	Call  PositionType = "call"
	Put   PositionType = "put"
)

// IsOption reports whether the type is an option leg
func (t PositionType) IsOption() bool {
	return t == Call || t == Put
}

// Position represents one portfolio leg (stock or option).
//
// Qty is signed: positive for long, negative for short; for options the
// magnitude is in contracts. CostBasis is always a positive entry price,
// per share for stock and per share of the option for option legs; the sign
// of the P&L contribution comes from Qty. Strike and Expiry are present only
// for option legs.
type Position struct {
	Ticker     string       `json:"ticker"`
	Type       PositionType `json:"position_type"`
	Qty        float64      `json:"qty"`
	Strike     float64      `json:"strike,omitempty"`
	CostBasis  float64      `json:"cost_basis"`
	Expiry     string       `json:"expiry,omitempty"` // YYYY-MM-DD
	Unrealized float64      `json:"unrealized,omitempty"`
}

// DTE returns days to expiry relative to now, recomputed on demand.
// Returns 0 and false for stock legs or unparseable expiries.
func (p Position) DTE(now time.Time) (int, bool) {
	if !p.Type.IsOption() || p.Expiry == "" {
		return 0, false
	}
	expiry, err := time.Parse("2006-01-02", p.Expiry)
	if err != nil {
		return 0, false
	}
	days := int(expiry.Sub(now).Hours() / 24)
	return days, true
}
