// Package http provides the HTTP control surface for mentord.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/mentord/internal/logging"
	"github.com/fyrsmithlabs/mentord/internal/memory"
	"github.com/fyrsmithlabs/mentord/internal/orchestrator"
	"github.com/fyrsmithlabs/mentord/internal/telemetry"
	"github.com/fyrsmithlabs/mentord/internal/tracelog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pipeline is the session API served over HTTP. *orchestrator.Orchestrator implements it.
type Pipeline interface {
	Submit(ctx context.Context, in orchestrator.Input) (orchestrator.SessionState, error)
	SubmitSimilar(ctx context.Context, id string) (orchestrator.SessionState, error)
	ResolveReview(ctx context.Context, text string) (orchestrator.SessionState, error)
	CancelReview(ctx context.Context) (orchestrator.SessionState, error)
	Reset(ctx context.Context) orchestrator.SessionState
	SetExplanationLevel(level orchestrator.ExplanationLevel) error
	Session() orchestrator.SessionState
	Trace() []tracelog.Entry
	Memory() *memory.Store
}

var _ Pipeline = (*orchestrator.Orchestrator)(nil)

// Server provides HTTP endpoints for mentord.
type Server struct {
	echo     *echo.Echo
	pipeline Pipeline
	logger   *logging.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string

	// Gatherer serves /metrics. Defaults to the global Prometheus registry.
	Gatherer prometheus.Gatherer

	// Metrics instruments every request when set.
	Metrics *HTTPMetrics

	// Health reports telemetry health on /health when set.
	Health func() telemetry.HealthStatus
}

// NewServer creates a new HTTP server.
func NewServer(pipeline Pipeline, logger *logging.Logger, cfg *Config) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), rid)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return nil
		}
	})
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.MetricsMiddleware())
	}

	s := &Server{
		echo:     e,
		pipeline: pipeline,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/session", s.handleSession)
	v1.GET("/trace", s.handleTrace)
	v1.GET("/memory", s.handleMemory)
	v1.POST("/submit", s.handleSubmit)
	v1.POST("/similar/:id", s.handleSimilar)
	v1.POST("/review/resolve", s.handleResolveReview)
	v1.POST("/review/cancel", s.handleCancelReview)
	v1.POST("/reset", s.handleReset)
	v1.PUT("/preferences", s.handlePreferences)
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Version: s.config.Version}
	if s.config.Health != nil {
		h := s.config.Health()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSession(c echo.Context) error {
	return c.JSON(http.StatusOK, s.pipeline.Session())
}

func (s *Server) handleTrace(c echo.Context) error {
	return c.JSON(http.StatusOK, TraceResponse{Entries: s.pipeline.Trace()})
}

func (s *Server) handleMemory(c echo.Context) error {
	return c.JSON(http.StatusOK, MemoryResponse{Items: s.pipeline.Memory().Items()})
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid submit request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	st, err := s.pipeline.Submit(c.Request().Context(), orchestrator.Input{
		Mode:     req.Mode,
		Text:     req.Text,
		Data:     req.Data,
		MIMEType: req.MIMEType,
	})
	return s.respond(c, st, err)
}

func (s *Server) handleSimilar(c echo.Context) error {
	st, err := s.pipeline.SubmitSimilar(c.Request().Context(), c.Param("id"))
	return s.respond(c, st, err)
}

func (s *Server) handleResolveReview(c echo.Context) error {
	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid review request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	st, err := s.pipeline.ResolveReview(c.Request().Context(), req.Text)
	return s.respond(c, st, err)
}

func (s *Server) handleCancelReview(c echo.Context) error {
	st, err := s.pipeline.CancelReview(c.Request().Context())
	return s.respond(c, st, err)
}

func (s *Server) handleReset(c echo.Context) error {
	return c.JSON(http.StatusOK, s.pipeline.Reset(c.Request().Context()))
}

func (s *Server) handlePreferences(c echo.Context) error {
	var req PreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.pipeline.SetExplanationLevel(req.ExplanationLevel); err != nil {
		return s.respond(c, s.pipeline.Session(), err)
	}
	return c.JSON(http.StatusOK, PreferencesResponse{ExplanationLevel: req.ExplanationLevel})
}

// respond writes the session on success or maps err to a status code:
// ValidationError 400, StateError and ErrSuperseded 409, ErrSimilarNotFound 404,
// AgentError 502 and anything else 500.
func (s *Server) respond(c echo.Context, st orchestrator.SessionState, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, st)
	}

	var (
		verr *orchestrator.ValidationError
		serr *orchestrator.StateError
		aerr *orchestrator.AgentError
	)
	resp := ErrorResponse{Error: err.Error(), Session: &st}
	code := http.StatusInternalServerError

	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
		resp.Kind = "validation"
	case errors.As(err, &serr):
		code = http.StatusConflict
		resp.Kind = "state"
	case errors.Is(err, orchestrator.ErrSuperseded):
		code = http.StatusConflict
		resp.Kind = "superseded"
	case errors.Is(err, orchestrator.ErrSimilarNotFound):
		code = http.StatusNotFound
		resp.Kind = "not_found"
	case errors.As(err, &aerr):
		code = http.StatusBadGateway
		resp.Kind = string(aerr.Kind)
		resp.Error = aerr.Message
	default:
		s.logger.Error(c.Request().Context(), "unexpected pipeline error", zap.Error(err))
	}

	return c.JSON(code, resp)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
