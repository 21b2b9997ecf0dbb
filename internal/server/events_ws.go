package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
)

// EventsWSHandler streams bus events to websocket clients
type EventsWSHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

// NewEventsWSHandler creates a websocket event stream handler
func NewEventsWSHandler(bus *events.Bus, log zerolog.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		bus: bus,
		log: log.With().Str("handler", "events_ws").Logger(),
	}
}

// ServeHTTP upgrades the connection and forwards events until the client
// disconnects. An optional ?types=A,B query parameter filters event types.
// GET /api/events/ws
func (h *EventsWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Slow clients drop events rather than block the bus
	eventCh := make(chan *events.Event, 100)
	forward := func(event *events.Event) {
		select {
		case eventCh <- event:
		default:
			h.log.Warn().Str("type", string(event.Type)).Msg("Event dropped for slow websocket client")
		}
	}

	var unsubscribes []func()
	typesParam := r.URL.Query().Get("types")
	if typesParam == "" {
		unsubscribes = append(unsubscribes, h.bus.SubscribeAll(forward))
	} else {
		for _, t := range strings.Split(typesParam, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				unsubscribes = append(unsubscribes, h.bus.Subscribe(events.EventType(t), forward))
			}
		}
	}
	defer func() {
		for _, unsub := range unsubscribes {
			unsub()
		}
	}()

	h.log.Debug().Str("remote", r.RemoteAddr).Str("types", typesParam).Msg("Websocket client connected")

	ctx := r.Context()
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Str("remote", r.RemoteAddr).Msg("Websocket client disconnected")
			return
		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case event := <-eventCh:
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Warn().Err(err).Msg("Failed to marshal event")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
