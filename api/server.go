// Copyright 2025 The ProjectMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the project catalog over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jcodagnone/projectmap/project"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Projects is the set of catalog operations served by the API.
type Projects interface {
	Create(ctx context.Context, in project.Input) (*project.Project, error)
	Update(ctx context.Context, id uuid.UUID, in project.Input, partial bool) (*project.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*project.Project, error)
	List(ctx context.Context, f project.ListFilter) ([]*project.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// Server serves the projects API over gin.
type Server struct {
	projects Projects
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *httpMetrics
}

// NewServer creates a Server. Metrics are registered in reg, which is
// also the registry exposed on /metrics; a fresh one is used when nil.
func NewServer(projects Projects, logger *zap.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return &Server{
		projects: projects,
		logger:   logger,
		registry: reg,
		metrics:  newHTTPMetrics(reg),
	}
}

// Router returns the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger(), s.metrics.middleware())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api/projects")
	api.GET("", s.listProjects)
	api.POST("", s.createProject)
	api.GET("/:uuid", s.getProject)
	api.PUT("/:uuid", s.replaceProject)
	api.PATCH("/:uuid", s.patchProject)
	api.DELETE("/:uuid", s.deleteProject)

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("api server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}

	return nil
}

func (s *Server) health(ctx *gin.Context) {
	if err := s.projects.Ping(ctx.Request.Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
