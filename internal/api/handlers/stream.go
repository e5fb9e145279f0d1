package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/sectrack/internal/entity"
	"github.com/wonny/sectrack/pkg/logger"
)

// StreamHandler pushes every sensor state change to websocket clients.
type StreamHandler struct {
	bus      *entity.Bus
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a stream handler on the given bus.
func NewStreamHandler(bus *entity.Bus, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		bus:    bus,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades the connection and forwards bus events until the client
// goes away.
// GET /ws
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Bus handlers must not block, so events queue here and a single
	// writer drains them. A slow client loses its connection instead of
	// stalling the bus.
	events := make(chan entity.Event, 64)
	unsubscribe := h.bus.SubscribeAll(func(ev entity.Event) {
		select {
		case events <- ev:
		default:
			h.logger.Warn("Websocket client too slow, dropping event")
		}
	})
	defer unsubscribe()

	// Reader only watches for the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed")
				return
			}
		}
	}
}
