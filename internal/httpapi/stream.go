package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// Stream pushes attendance events to an admin over a websocket until
// either side closes or the server shuts down.
func (s *Server) Stream(c *gin.Context) {
	log := zerolog.Ctx(c.Request.Context())

	// Subscribe before the handshake completes so no event committed after
	// the client sees the upgrade is missed.
	sub := s.feed.Subscribe()
	defer s.feed.Unsubscribe(sub)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log.Info().Int64("employee_id", requester(c).EmployeeID).Msg("stream opened")

	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	closeWith := func(code int, text string) {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(streamWriteWait))
	}

	for {
		select {
		case <-readerDone:
			return
		case <-s.closing:
			closeWith(websocket.CloseGoingAway, "server shutting down")
			return
		case ev, ok := <-sub.C:
			if !ok {
				closeWith(websocket.CloseTryAgainLater, "subscriber too slow")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug().Err(err).Msg("stream write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
