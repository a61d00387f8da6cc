package server

import (
	"context"
	"errors"
	"sync"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/google/uuid"
)

var (
	ErrStreamClosed         = errors.New("stream closed")
	ErrStreamBacklogged     = errors.New("stream backlogged, client is not reading")
	ErrStreamingUnsupported = errors.New("response writer does not support streaming")
)

type StreamState int

const (
	Connecting StreamState = iota
	Streaming
	Closed
)

func (s StreamState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// writer is the wire side of a stream. Only the stream's own loop calls it,
// so implementations need no locking.
type writer interface {
	WriteConnected() error
	WriteEvent(e internal.ChangeEvent) error
	WriteHeartbeat() error
}

// stream
// one subscriber connection. Broadcasts hand events over through Send, which
// never blocks; the connection's handler goroutine drains them in loop.
type stream struct {
	id        string
	transport string

	mu     sync.Mutex
	state  StreamState
	events chan internal.ChangeEvent
	done   chan struct{}
}

func newStream(transport string, buffer int) *stream {
	return &stream{
		id:        uuid.NewString(),
		transport: transport,
		state:     Connecting,
		events:    make(chan internal.ChangeEvent, buffer),
		done:      make(chan struct{}),
	}
}

func (s *stream) ID() string { return s.id }

func (s *stream) Transport() string { return s.transport }

func (s *stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// open moves a connecting stream to streaming once the response headers are
// out.
func (s *stream) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connecting {
		return false
	}
	s.state = Streaming
	return true
}

// Send queues e for the connection. A closed stream returns ErrStreamClosed;
// a full queue closes the stream and returns ErrStreamBacklogged.
func (s *stream) Send(e internal.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Closed {
		return ErrStreamClosed
	}

	select {
	case s.events <- e:
		return nil
	default:
		s.closeLocked()
		return ErrStreamBacklogged
	}
}

func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *stream) closeLocked() {
	if s.state == Closed {
		return
	}
	s.state = Closed
	close(s.done)
}

// serveStream registers st and pumps its events and heartbeats into w until
// the client goes away, a write fails, the server shuts down or a backlog
// closes the stream.
// st is deregistered exactly once on the way out.
func (s *Server) serveStream(ctx context.Context, st *stream, w writer) error {
	ticker := s.clock.Ticker(s.heartbeat)
	defer ticker.Stop()

	s.registry.Add(st)
	defer s.registry.Remove(st)
	defer st.close()

	s.logger.Printf("server :: stream open --> {id: %s, transport: %s}\n", st.id, st.transport)

	if err := w.WriteConnected(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-st.done:
			return ErrStreamBacklogged
		case e := <-st.events:
			if err := w.WriteEvent(e); err != nil {
				return err
			}
		case <-ticker.C:
			if err := w.WriteHeartbeat(); err != nil {
				return err
			}
		}
	}
}

// endStream logs why a stream ended. Client disconnects are the normal way
// out and are not errors.
func (s *Server) endStream(st *stream, err error) {
	if err != nil {
		s.logger.Printf("server error :: stream closed --> {id: %s, transport: %s}, %v\n", st.id, st.transport, err)
		return
	}
	s.logger.Printf("server :: stream closed --> {id: %s, transport: %s}\n", st.id, st.transport)
}
