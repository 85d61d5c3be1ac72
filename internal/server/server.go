package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/batch"
	"github.com/aronrissato/CarboPratos/internal/config"
	"github.com/aronrissato/CarboPratos/internal/plate"
	"github.com/aronrissato/CarboPratos/internal/storage"
)

// Server exposes the plate analysis pipeline over HTTP: single-image
// analysis, asynchronous batch jobs with websocket progress, stats and an
// optional result history.
type Server struct {
	router     *gin.Engine
	logger     *zap.Logger
	calculator *plate.Calculator
	processor  *batch.Processor
	store      *storage.SQLiteStore
	jobs       *jobTracker
	config     *config.Config
}

func NewServer(cfg *config.Config, calculator *plate.Calculator, processor *batch.Processor, store *storage.SQLiteStore, logger *zap.Logger) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		logger:     logger,
		calculator: calculator,
		processor:  processor,
		store:      store,
		jobs:       newJobTracker(),
		config:     cfg,
	}

	router := gin.New()
	router.Use(requestLogger(logger))
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)

	api := router.Group("/api/v1")
	{
		api.GET("/health", s.handleHealth)
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/stats", s.handleStats)
		api.POST("/batch", s.handleStartBatch)
		api.GET("/batch/:job_id", s.handleBatchStatus)
		api.GET("/history", s.handleHistory)
	}

	router.GET("/ws/batch/:job_id", s.handleBatchSocket)

	s.router = router
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server",
			zap.String("addr", addr),
			zap.String("environment", s.config.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
