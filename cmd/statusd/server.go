package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"audiopipeline/internal/diag"
	"audiopipeline/msg"
	"audiopipeline/mute"
)

// Server is the read-only introspection Echo application: it exposes the
// factory's pool occupancy and the muter's current state for an operator
// to poll, with no write surface of its own.
type Server struct {
	echo       *echo.Echo
	factory    *msg.Factory
	muter      *mute.MuterVolume
	instanceID string
}

// New constructs an Echo app with the /health, /pools and /muter routes.
// Each server gets a fresh instance id so an operator polling several
// pipeline processes can tell their responses apart.
func New(factory *msg.Factory, muter *mute.MuterVolume) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{echo: e, factory: factory, muter: muter, instanceID: uuid.NewString()}
	s.registerRoutes()
	return s
}

// InstanceID returns this server's unique instance id.
func (s *Server) InstanceID() string { return s.instanceID }

// requestLogger logs each HTTP request via slog, at Debug level for the
// noisy health check and Info level for everything else.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			path := req.URL.Path
			if path == "/health" {
				slog.Debug("http request", "method", req.Method, "path", path,
					"status", c.Response().Status, "duration_ms", time.Since(start).Milliseconds())
			} else {
				slog.Info("http request", "method", req.Method, "path", path,
					"status", c.Response().Status, "duration_ms", time.Since(start).Milliseconds(),
					"remote", c.RealIP())
			}
			return nil
		}
	}
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/pools", s.handlePools)
	s.echo.GET("/muter", s.handleMuter)
}

// Run starts Echo and blocks until ctx is canceled or startup fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down status server")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		slog.Info("status server stopped")
		return nil
	}
}

type healthResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", InstanceID: s.instanceID})
}

type poolResponse struct {
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity"`
	InUse    int    `json:"in_use"`
	Peak     int    `json:"peak"`
}

type poolsResponse struct {
	Pools []poolResponse `json:"pools"`
}

func (s *Server) handlePools(c echo.Context) error {
	snap := diag.Collect(s.factory, s.muter)
	out := make([]poolResponse, 0, len(snap.Pools))
	for _, p := range snap.Pools {
		out = append(out, poolResponse{
			Kind:     p.Kind.String(),
			Capacity: p.Capacity,
			InUse:    p.InUse,
			Peak:     p.Peak,
		})
	}
	return c.JSON(http.StatusOK, poolsResponse{Pools: out})
}

type muterResponse struct {
	State string `json:"state"`
}

func (s *Server) handleMuter(c echo.Context) error {
	state := mute.StateRunning
	if s.muter != nil {
		state = s.muter.State()
	}
	return c.JSON(http.StatusOK, muterResponse{State: state.String()})
}
