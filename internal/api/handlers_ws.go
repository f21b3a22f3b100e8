package api

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/contrib/websocket"
)

// StreamDecisions streams audit records over WebSocket as they are appended.
// The stream is read-only; client messages are consumed solely to detect
// disconnection.
func (s *Server) StreamDecisions(c *websocket.Conn) {
	defer c.Close()

	ch := s.deps.Audit.Subscribe(64)
	defer s.deps.Audit.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(rec)
			if err != nil {
				slog.Error("marshaling audit record for stream", "seq", rec.Seq, "error", err)
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
