package server

import (
	"errors"
	"net/http"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/protocol"
	"github.com/labstack/echo/v4"
)

const transportSSE = "sse"

type sseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	return &sseWriter{w: w, rc: http.NewResponseController(w)}
}

func (s *sseWriter) write(b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *sseWriter) WriteConnected() error { return s.write(protocol.Connected) }

func (s *sseWriter) WriteHeartbeat() error { return s.write(protocol.Heartbeat) }

func (s *sseWriter) WriteEvent(e internal.ChangeEvent) error {
	frame, err := protocol.EncodeChange(e)
	if err != nil {
		return err
	}
	return s.write(frame)
}

// events serves GET /events.
func (s *Server) events(c echo.Context) error {
	st := newStream(transportSSE, s.buffer)
	w := newSSEWriter(c.Response())

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, protocol.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	if err := w.rc.Flush(); err != nil {
		if errors.Is(err, http.ErrNotSupported) {
			err = ErrStreamingUnsupported
		}
		s.endStream(st, err)
		return nil
	}
	st.open()

	s.endStream(st, s.serveStream(c.Request().Context(), st, w))
	return nil
}
