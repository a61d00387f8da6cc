package server

import (
	"context"
	"time"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/protocol"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	transportWS = "ws"

	wsWriteWait = 10 * time.Second
)

// upgrader keeps gorilla's same origin check: browsers may only open /ws from
// pages served by this host, clients without an Origin header are let in.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsWriter struct {
	conn *websocket.Conn
}

// WriteConnected is a no-op, the websocket handshake already tells the client
// it is connected.
func (w *wsWriter) WriteConnected() error { return nil }

func (w *wsWriter) WriteEvent(e internal.ChangeEvent) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(protocol.Envelope{
		Event: protocol.ChangeEvent,
		Data:  protocol.NewChangePayload(e),
	})
}

func (w *wsWriter) WriteHeartbeat() error {
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// wsEvents serves GET /ws, the same change events as /events as JSON frames.
func (s *Server) wsEvents(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response.
		s.logger.Printf("server error :: websocket upgrade, %v\n", err)
		return nil
	}
	defer ws.Close()

	st := newStream(transportWS, s.buffer)
	st.open()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// clients never send anything, reading only surfaces the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = s.serveStream(ctx, st, &wsWriter{conn: ws})
	s.endStream(st, err)

	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return nil
}
