package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ManouchehrRasoulli/fsbrowser/internal"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/filehandler"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/hub"
	"github.com/ManouchehrRasoulli/fsbrowser/pkg/metrics"
	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Option func(s *Server)

// WithClock replaces the wall clock driving stream heartbeats.
func WithClock(c clock.Clock) Option {
	return func(s *Server) {
		s.clock = c
	}
}

type Server struct {
	address  string
	echo     *echo.Echo
	listener net.Listener
	router   *Router
	assets   *filehandler.Handler
	registry *hub.Registry
	logger   *log.Logger

	clock     clock.Clock
	heartbeat time.Duration
	buffer    int

	done     chan struct{}
	doneOnce sync.Once
}

func NewServer(cfg *pkg.Config, lister *internal.Lister, assets *filehandler.Handler,
	registry *hub.Registry, logger *log.Logger, options ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		address:   cfg.Address(),
		echo:      e,
		router:    NewRouter(cfg.Port, cfg.DefaultFolder, lister, assets, logger),
		assets:    assets,
		registry:  registry,
		logger:    logger,
		clock:     clock.New(),
		heartbeat: cfg.Heartbeat,
		buffer:    cfg.StreamBuffer,
		done:      make(chan struct{}),
	}

	for _, option := range options {
		option(s)
	}

	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Printf("server :: %s %s --> {status: %d, latency: %v, request-id: %s}\n",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(metrics.EchoMiddleware())

	e.GET("/events", s.events)
	e.GET("/ws", s.wsEvents)
	e.GET("/static/*", s.static)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.Any("/", s.route)
	e.Any("/*", s.route)

	return s
}

func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.listener = l
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves on the listener until Shutdown or Close. Listen is called first
// when it has not been.
func (s *Server) Run() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Printf("server :: running on %s ...\n", s.listener.Addr())

	s.echo.Listener = s.listener
	err := s.echo.Start("")
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown ends every open stream and waits for in flight requests until ctx
// expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })
	return s.echo.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.doneOnce.Do(func() { close(s.done) })
	return s.echo.Close()
}

// ServeHTTP lets tests drive the server without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) route(c echo.Context) error {
	req := c.Request()

	var query url.Values
	if err := req.ParseForm(); err == nil {
		query = req.Form
	} else {
		query = req.URL.Query()
	}

	res, err := s.router.Route(req.Method, req.URL.Path, query)
	if err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "no-cache")
	return c.Blob(res.Status, res.ContentType, res.Body)
}

func (s *Server) static(c echo.Context) error {
	// echo routes on RawPath when the request has one, the param is still
	// escaped then and only then.
	rel := c.Param("*")
	if c.Request().URL.RawPath != "" {
		unescaped, err := url.PathUnescape(rel)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		rel = unescaped
	}

	a, err := s.assets.Open(rel)
	switch {
	case errors.Is(err, filehandler.ErrForbidden):
		return c.String(http.StatusForbidden, "Forbidden")
	case errors.Is(err, filehandler.ErrAssetNotFound):
		return c.String(http.StatusNotFound, "Static file not found")
	case err != nil:
		return err
	}

	return c.Blob(http.StatusOK, a.ContentType, a.Body)
}

// errorHandler writes unmatched routes as the plain 404 page and everything
// else as a 500 carrying the error text.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			_ = c.Blob(notFound.Status, notFound.ContentType, notFound.Body)
			return
		}
		if he.Code < http.StatusInternalServerError {
			_ = c.String(he.Code, http.StatusText(he.Code))
			return
		}
	}

	s.logger.Printf("server error :: %s %s, %v\n", c.Request().Method, c.Request().URL.Path, err)
	_ = c.String(http.StatusInternalServerError, "server error: "+err.Error())
}
