// Package handlers provides HTTP handlers for single-leg option analytics.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/modules/pricing"
)

// Handler handles pricing HTTP requests.
// This is the explicit validation boundary in front of the pricer: the
// engine itself lets NaN propagate for non-physical inputs, so the API
// rejects them up front.
type Handler struct {
	defaultRate float64
	log         zerolog.Logger
}

// NewHandler creates a new pricing handler. defaultRate is the risk-free
// rate applied when a request omits one.
func NewHandler(defaultRate float64, log zerolog.Logger) *Handler {
	return &Handler{
		defaultRate: defaultRate,
		log:         log.With().Str("handler", "pricing").Logger(),
	}
}

// request is the shared payload of the price and greeks endpoints
type request struct {
	Type   string   `json:"type"` // "call" or "put"
	Spot   float64  `json:"spot"`
	Strike float64  `json:"strike"`
	Years  float64  `json:"years"` // Years to expiry, may be 0 for at-expiry
	Rate   *float64 `json:"rate,omitempty"`
	Sigma  float64  `json:"sigma"`
}

// validate checks the numeric domain and resolves defaults
func (h *Handler) validate(req *request) (pricing.OptionType, float64, error) {
	typ := pricing.OptionType(req.Type)
	if typ != pricing.Call && typ != pricing.Put {
		return "", 0, fmt.Errorf("type must be \"call\" or \"put\", got %q", req.Type)
	}
	if req.Spot <= 0 {
		return "", 0, fmt.Errorf("spot must be positive, got %v", req.Spot)
	}
	if req.Strike <= 0 {
		return "", 0, fmt.Errorf("strike must be positive, got %v", req.Strike)
	}
	if req.Sigma < 0 {
		return "", 0, fmt.Errorf("sigma must be non-negative, got %v", req.Sigma)
	}

	rate := h.defaultRate
	if req.Rate != nil {
		rate = *req.Rate
	}
	return typ, rate, nil
}

// HandlePrice handles POST /api/pricing/price
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	typ, rate, err := h.validate(&req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	price := pricing.Price(typ, req.Spot, req.Strike, req.Years, rate, req.Sigma)
	h.writeJSON(w, http.StatusOK, map[string]float64{"price": price})
}

// HandleGreeks handles POST /api/pricing/greeks
func (h *Handler) HandleGreeks(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	typ, rate, err := h.validate(&req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	greeks := pricing.ComputeGreeks(typ, req.Spot, req.Strike, req.Years, rate, req.Sigma)
	h.writeJSON(w, http.StatusOK, greeks)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
