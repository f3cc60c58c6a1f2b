// Package server exposes the ensemble pipeline over HTTP: a streaming
// Server-Sent Events endpoint and a blocking aggregate endpoint.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	aierrors "github.com/mmichie/ensemble/pkg/ensemble/errors"
	"github.com/mmichie/ensemble/pkg/ensemble/pipeline"
	"github.com/mmichie/ensemble/pkg/ensemble/provider"
	"github.com/mmichie/ensemble/pkg/ensemble/streaming"
)

// EnsembleRequest is the request body for both ensemble endpoints.
type EnsembleRequest struct {
	Prompt     string           `json:"prompt"`
	Constraint string           `json:"constraint,omitempty"`
	History    provider.History `json:"history,omitempty"`
}

// Server routes HTTP requests to an orchestrator.
type Server struct {
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
	engine       *gin.Engine
}

// New creates a server around the orchestrator
func New(orchestrator *pipeline.Orchestrator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orchestrator: orchestrator,
		logger:       logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", s.handleHealth)
	api := engine.Group("/api")
	{
		api.POST("/ensemble", s.handleStream)
		api.POST("/ensemble/complete", s.handleComplete)
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails
func (s *Server) Run(addr string) error {
	s.logger.Info("ensemble server listening", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStream runs the pipeline and relays its events as SSE frames.
// Invalid requests are rejected with a JSON error before any stream
// bytes are written; once streaming starts, failures travel in-band as
// pipeline events.
func (s *Server) handleStream(c *gin.Context) {
	var req EnsembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := s.orchestrator.Run(c.Request.Context(), pipeline.Request{
		Prompt:     req.Prompt,
		Constraint: req.Constraint,
		History:    req.History,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	seq := 0
	for ev := range events {
		seq++
		// Frame ids are the run ID plus a per-stream sequence number
		id := strconv.Itoa(seq)
		if ev.RequestID != "" {
			id = ev.RequestID + "-" + id
		}
		if err := streaming.WriteEvent(c.Writer, id, string(ev.Type), ev); err != nil {
			s.logger.Warn("client disconnected mid-stream", "error", err, "events_sent", seq-1)
			for range events {
				// Drain so the pipeline goroutines can settle
			}
			return
		}
		c.Writer.Flush()
	}
}

// handleComplete runs the pipeline to completion and returns the
// aggregate outcome as one JSON document.
func (s *Server) handleComplete(c *gin.Context) {
	var req EnsembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := s.orchestrator.RunCollect(c.Request.Context(), pipeline.Request{
		Prompt:     req.Prompt,
		Constraint: req.Constraint,
		History:    req.History,
	})
	if err != nil {
		s.logger.Error("ensemble request failed", "error", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("ensemble request completed",
		"requestId", outcome.RequestID,
		"pipeline", outcome.PipelineName,
		"failed", outcome.Failed)
	c.JSON(http.StatusOK, outcome)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, aierrors.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, aierrors.ErrClassification):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
