// Package handlers provides HTTP handlers for position import and retrieval.
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/modules/positions"
)

// Handler handles position HTTP requests
type Handler struct {
	service *positions.Service
	log     zerolog.Logger
}

// NewHandler creates a new positions handler
func NewHandler(service *positions.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "positions").Logger(),
	}
}

// HandleImport handles POST /api/positions/import.
// The request body is the raw broker CSV export; multipart forms with a
// "file" field are accepted as well.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	defer r.Body.Close()

	if err := r.ParseMultipartForm(8 << 20); err == nil {
		if file, _, err := r.FormFile("file"); err == nil {
			defer file.Close()
			body = file
		}
	}

	result, err := h.service.ImportCSV(body)
	if err != nil {
		h.log.Error().Err(err).Msg("CSV import failed")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

// positionView decorates a position with its days-to-expiry, recomputed at
// request time rather than stored.
type positionView struct {
	positions.Position
	DTE *int `json:"dte,omitempty"`
}

// HandleGetPositions handles GET /api/positions, returning the active
// import session's positions and resolved prices.
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	posList, prices, session, err := h.service.Active()
	if errors.Is(err, sql.ErrNoRows) {
		h.writeError(w, http.StatusNotFound, "no positions imported yet")
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().UTC()
	views := make([]positionView, len(posList))
	for i, pos := range posList {
		views[i] = positionView{Position: pos}
		if days, ok := pos.DTE(now); ok {
			views[i].DTE = &days
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":   session,
		"positions": views,
		"prices":    prices,
	})
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
