// Package api provides the HTTP surface over the persistence core.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simonhust/trailer/internal/auth"
	"github.com/simonhust/trailer/internal/config"
	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/logger"
	"github.com/simonhust/trailer/internal/metrics"
)

// Deps holds the server's collaborators.
type Deps struct {
	Submissions *database.SubmissionRepository
	Mappings    *database.MappingRepository
	Admins      *database.AdminRepository
	JWT         *auth.JWTManager
	Metrics     *metrics.Metrics
	Logger      logger.Logger
}

// Server is the HTTP server for the trailer service.
type Server struct {
	router *gin.Engine
	server *http.Server
}

// NewServer builds the gin router and the HTTP server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(deps.Logger))

	submissionHandler := NewSubmissionHandler(deps.Submissions, deps.Metrics, deps.Logger)
	mappingHandler := NewMappingHandler(deps.Mappings)
	adminHandler := NewAdminHandler(deps.Admins, deps.JWT, deps.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/submissions", submissionHandler.Submit)
		v1.GET("/mappings/recent", mappingHandler.Recent)
		v1.GET("/mappings/:source_id", mappingHandler.Lookup)
		v1.POST("/auth/login", adminHandler.Login)

		protected := v1.Group("")
		protected.Use(RequireAdmin(deps.JWT))
		{
			protected.GET("/submissions/pending", submissionHandler.ListPending)
			protected.POST("/submissions/:id/review", submissionHandler.Review)
			protected.POST("/admins", adminHandler.Create)
			protected.GET("/admins", adminHandler.List)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		router: router,
		server: server,
	}
}

// HTTPServer returns the underlying http.Server for lifecycle management.
func (s *Server) HTTPServer() *http.Server {
	return s.server
}

// Router returns the gin engine, used by handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// requestLogger logs each request with method, path, status and latency.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}
