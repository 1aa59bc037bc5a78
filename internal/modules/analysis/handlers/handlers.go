// Package handlers provides HTTP handlers for payoff and risk analysis.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/modules/analysis"
)

// Handler handles analysis HTTP requests
type Handler struct {
	service *analysis.Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleGetAll handles GET /api/analysis, returning the analysis of every
// ticker in the active session.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.AnalyzeAll()
	if h.handleSessionError(w, err) {
		return
	}
	h.writeJSON(w, http.StatusOK, results)
}

// HandleGetTicker handles GET /api/analysis/{ticker}
func (h *Handler) HandleGetTicker(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	if ticker == "" {
		h.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	result, err := h.service.Analyze(ticker)
	if err != nil && strings.Contains(err.Error(), "no positions for ticker") {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if h.handleSessionError(w, err) {
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// handleSessionError writes the appropriate error response for service
// failures and reports whether the request is finished.
func (h *Handler) handleSessionError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "no positions imported yet")
		return true
	}
	h.log.Error().Err(err).Msg("Analysis failed")
	h.writeError(w, http.StatusInternalServerError, err.Error())
	return true
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
