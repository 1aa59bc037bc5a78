package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/askourtis/payoff/internal/events"
)

const wsWriteTimeout = 10 * time.Second

// EventsHandler streams bus events to dashboard clients over a websocket.
// The frontend uses it to re-fetch analysis whenever positions change.
type EventsHandler struct {
	eventBus *events.Bus
	log      zerolog.Logger
}

// NewEventsHandler creates a new events websocket handler
func NewEventsHandler(eventBus *events.Bus, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		eventBus: eventBus,
		log:      log.With().Str("handler", "events").Logger(),
	}
}

// HandleStream handles GET /api/events by upgrading to a websocket and
// forwarding every published event until the client disconnects.
func (h *EventsHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Dashboard runs on a different port during development
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch, unsubscribe := h.eventBus.Subscribe()
	defer unsubscribe()

	h.log.Debug().Msg("Events subscriber connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Events subscriber disconnected")
				return
			}
		}
	}
}
