package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
)

// EventsHandler bridges the in-process bus to clients over server-sent
// events. Each connected client gets a buffered channel; events are
// dropped for a client that cannot keep up, because bus handlers must
// never block the publisher.
type EventsHandler struct {
	mu      sync.Mutex
	clients map[chan events.Event]struct{}
	logger  *logger.Logger
}

// NewEventsHandler creates the SSE bridge and subscribes it to every
// bus topic.
func NewEventsHandler(bus *events.Bus, appLogger *logger.Logger) *EventsHandler {
	h := &EventsHandler{
		clients: make(map[chan events.Event]struct{}),
		logger:  appLogger.WithComponent("sse"),
	}

	bus.SubscribeAll(func(ev events.Event) {
		h.mu.Lock()
		defer h.mu.Unlock()
		for ch := range h.clients {
			select {
			case ch <- ev:
			default:
			}
		}
	})

	return h
}

// Stream handles a long-lived SSE connection
func (h *EventsHandler) Stream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ch := make(chan events.Event, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("Marshal event failed", "error", err, "topic", ev.Topic)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Topic, data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
