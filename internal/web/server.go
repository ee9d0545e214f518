// Package web is the HTTP layer of the page service.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/team-pogie-react/page-service/internal/core"
)

const defaultMaxBodyBytes = 1 << 20 // 1MB

// PageEngine is the part of core.Engine the handlers use.
type PageEngine interface {
	Handle(ctx context.Context, name string, req core.Request) (core.PageResponse, error)
	Ready(ctx context.Context) error
}

// Options configures the server.
type Options struct {
	Logger *zap.Logger

	// Metrics, if set, is served on /metrics.
	Metrics http.Handler

	// MaxBodyBytes caps POST bodies. Defaults to 1MB.
	MaxBodyBytes int64
}

// Server is the page service's HTTP server
type Server struct {
	engine       PageEngine
	router       *gin.Engine
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewServer creates a new web server
func NewServer(engine PageEngine, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	router := gin.New()
	s := &Server{
		engine:       engine,
		router:       router,
		logger:       logger,
		maxBodyBytes: maxBody,
	}

	router.Use(requestID(), accessLog(logger), recovery(logger))
	router.NoRoute(s.handleNoRoute)

	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", s.handleReady)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	// API routes
	pages := router.Group("/api/pages")
	{
		pages.GET("/:pageType", s.handlePage)
		pages.POST("/:pageType", s.handlePage)
		pages.GET("/:pageType/:value", s.handlePage)
		pages.POST("/:pageType/:value", s.handlePage)
	}

	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
