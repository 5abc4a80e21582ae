package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/taskpilot-ai/taskpilot/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST API is already wide open to any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// handleEvents upgrades to a WebSocket and forwards operational events
// from the bus until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// A nil bus leaves ch nil: the connection stays open but idle.
	var ch <-chan events.Event
	if s.bus != nil {
		ch = s.bus.Subscribe(64)
		defer s.bus.Unsubscribe(ch)
	}

	s.logger.Debug("events subscriber connected", "remote", r.RemoteAddr)

	// Reader goroutine: we never expect client messages, but reading is
	// required to notice the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(evt); err != nil {
				s.logger.Debug("events subscriber write failed", "error", err)
				return
			}
		}
	}
}
