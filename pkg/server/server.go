// Package server exposes the engine over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundprediction/tempograph"
	"github.com/soundprediction/tempograph/pkg/config"
	"github.com/soundprediction/tempograph/pkg/server/handlers"
	"github.com/soundprediction/tempograph/pkg/types"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	engine tempograph.Tempograph
	server *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, engine tempograph.Tempograph) *Server {
	return &Server{
		config: cfg,
		engine: engine,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// Router returns the configured gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	graphHandler := handlers.NewGraphHandler(s.engine)

	s.router.GET("/health", graphHandler.Health)
	s.router.GET("/live", graphHandler.Health)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/documents", graphHandler.AddDocument)
		v1.GET("/documents", graphHandler.DocumentsInRange)
		v1.GET("/documents/:id", graphHandler.GetDocument)
		v1.GET("/documents/:id/forward", graphHandler.Forward)
		v1.GET("/documents/:id/backward", graphHandler.Backward)
		v1.GET("/documents/:id/attention", graphHandler.Attention)

		v1.POST("/relationships", graphHandler.AddRelationship)

		v1.GET("/path", graphHandler.FindPath)
		v1.GET("/similarity", graphHandler.Similarity)

		v1.POST("/analyze", graphHandler.Analyze)
		v1.POST("/summary", graphHandler.Summary)

		v1.GET("/stats", graphHandler.Stats)
		v1.GET("/export", graphHandler.Export)
	}
}

// Start starts the server
func (s *Server) Start() error {
	fmt.Printf("Starting server on %s\n", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	fmt.Println("Stopping server...")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// contextMiddleware attaches a request id and source to the request context
// so error telemetry can attribute failures.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, types.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, types.ContextKeyRequestSource, "server")

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
