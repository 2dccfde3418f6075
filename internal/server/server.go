package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"CoinDash/internal/calculator"
	"CoinDash/internal/collector"
	"CoinDash/internal/live"
	"CoinDash/internal/metrics"
	"CoinDash/internal/model"
	"CoinDash/internal/recorder"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// Refresher runs one live tick on demand.
type Refresher interface {
	RunOnce(ctx context.Context) model.TickResult
}

// Deps are the components the HTTP surface reads from.
type Deps struct {
	SessionID  string
	Currency   string
	Days       int
	Toggles    calculator.Toggles
	ShowVolume bool

	Catalog    *collector.Catalog
	Collector  *collector.Collector
	Aggregator *live.Aggregator
	Refresher  Refresher
	Journal    recorder.Recorder
	Metrics    *metrics.Recorder
	Hub        *Hub
}

// Server wraps the Echo HTTP server.
type Server struct {
	echo *echo.Echo
	deps Deps
	addr string
}

// New creates a server and registers every route.
func New(addr string, deps Deps) *Server {
	if deps.Hub == nil {
		deps.Hub = NewHub()
	}
	if deps.Journal == nil {
		deps.Journal = recorder.NewNoopRecorder()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogging())

	s := &Server{echo: e, deps: deps, addr: addr}

	e.GET("/healthz", s.health)
	e.GET("/api/coins", s.coins)
	e.GET("/api/history", s.history)
	e.GET("/api/history/:id/export.csv", s.exportHistory)
	e.GET("/api/live", s.live)
	e.POST("/api/live/refresh", s.refresh)
	e.GET("/api/live/:id/export.csv", s.exportLive)
	e.GET("/api/journal", s.journal)
	e.GET("/ws/live", deps.Hub.handleWS)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}
	return s
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}()
}

// Stop gracefully shuts down the server and disconnects WebSocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.deps.Hub.Close()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo { return s.echo }

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("http request")
			return nil
		}
	}
}
