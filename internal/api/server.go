// Package api exposes the HTTP surface of the risk inference service:
// prediction submission, status polling, cancellation, health, and a
// websocket lifecycle event feed.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/health-risk-inference-server/internal/coordinator"
	"github.com/health-risk-inference-server/internal/domain"
	"github.com/health-risk-inference-server/internal/registry"
)

// Server represents the HTTP server
type Server struct {
	logger      *logrus.Logger
	config      domain.ServerConfig
	coordinator *coordinator.Coordinator
	registry    *registry.Registry
	router      *gin.Engine
	server      *http.Server
	hub         *eventHub
}

// NewServer creates a new HTTP server instance
func NewServer(logger *logrus.Logger, cfg domain.ServerConfig, coord *coordinator.Coordinator, reg *registry.Registry, debug bool) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	if cfg.RateLimit > 0 {
		router.Use(rateLimitMiddleware(cfg.RateLimit, cfg.RateBurst))
	}

	server := &Server{
		logger:      logger,
		config:      cfg,
		coordinator: coord,
		registry:    reg,
		router:      router,
		hub:         newEventHub(logger),
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	events, unsubscribe := s.coordinator.Subscribe()
	go s.hub.run(events)
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.hub.close()
	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws/events", s.handleEvents)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/predictions", s.handleSubmitPrediction)
		v1.GET("/predictions/:id/status", s.handleGetStatus)
		v1.DELETE("/predictions/:id", s.handleCancelPrediction)
		v1.GET("/models", s.handleListModels)
	}
}

// predictionRequestBody is the submission payload.
type predictionRequestBody struct {
	PatientID string         `json:"patient_id"`
	Payload   map[string]any `json:"payload" binding:"required"`
	// Diseases restricts the prediction to a subset of supported models.
	Diseases []string `json:"diseases,omitempty"`
	// ExternalTimeoutMS caps each out-of-process model call.
	ExternalTimeoutMS int `json:"external_timeout_ms,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"queue_depth": s.coordinator.QueueLen(),
	})
}

// handleSubmitPrediction enqueues a prediction request and returns its
// id without waiting for the pipeline.
func (s *Server) handleSubmitPrediction(c *gin.Context) {
	var body predictionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidPayload, "Invalid request body", err.Error())
		return
	}

	opts := domain.PredictionOptions{}
	for _, name := range body.Diseases {
		key := domain.DiseaseKey(name)
		if !key.IsValid() {
			s.writeError(c, http.StatusBadRequest, domain.ErrInvalidPayload,
				"Unsupported disease key", name)
			return
		}
		opts.Diseases = append(opts.Diseases, key)
	}
	if body.ExternalTimeoutMS > 0 {
		opts.ExternalTimeout = time.Duration(body.ExternalTimeoutMS) * time.Millisecond
	}

	id, err := s.coordinator.Submit(c.Request.Context(), body.PatientID, body.Payload, opts)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidPayload, "Could not enqueue prediction", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"prediction_id": id,
		"status":        domain.StatusQueued,
		"status_url":    fmt.Sprintf("/api/v1/predictions/%s/status", id),
	})
}

// handleGetStatus returns the current status record, including the
// result bundle once the prediction has completed.
func (s *Server) handleGetStatus(c *gin.Context) {
	id := c.Param("id")

	record, err := s.coordinator.GetStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(c, http.StatusNotFound, domain.ErrPredictionNotFound, "Unknown prediction id", id)
			return
		}
		s.writeError(c, http.StatusServiceUnavailable, domain.ErrStatusStore, "Status store unavailable", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prediction_id": id,
		"status":        record.Status,
		"progress":      record.Progress,
		"timestamp":     record.Timestamp,
		"result":        record.Result,
		"error":         record.Error,
	})
}

// handleCancelPrediction cancels a request that is still queued.
func (s *Server) handleCancelPrediction(c *gin.Context) {
	id := c.Param("id")

	switch err := s.coordinator.Cancel(id); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"prediction_id": id,
			"cancelled":     true,
		})
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(c, http.StatusNotFound, domain.ErrPredictionNotFound, "Unknown prediction id", id)
	case errors.Is(err, domain.ErrRequestNotQueued):
		s.writeError(c, http.StatusConflict, domain.ErrInvalidPayload,
			"Prediction is no longer queued and cannot be cancelled", id)
	default:
		s.writeError(c, http.StatusInternalServerError, domain.ErrInternal, "Cancellation failed", err.Error())
	}
}

// handleListModels reports the resolved backend per disease.
func (s *Server) handleListModels(c *gin.Context) {
	models := make([]gin.H, 0, len(s.registry.Diseases()))
	for _, disease := range s.registry.Diseases() {
		res, err := s.registry.Resolve(disease)
		if err != nil {
			continue
		}
		models = append(models, gin.H{
			"disease": disease,
			"backend": res.Descriptor.Backend,
			"version": res.Descriptor.Version,
		})
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// handleEvents upgrades to a websocket and streams lifecycle events.
func (s *Server) handleEvents(c *gin.Context) {
	s.hub.serve(c.Writer, c.Request)
}

func (s *Server) writeError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, gin.H{
		"error":      domain.NewServiceError(code, message, details, c.GetString("request_id")),
		"request_id": c.GetString("request_id"),
	})
}
