// Package server exposes the backend HTTP API: feeds, predictions, coaching,
// tips, deals, the spending graph, receipt ingestion and Knot linking.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/balanceiq/balanceiq/internal/coach"
	"github.com/balanceiq/balanceiq/internal/insights"
	"github.com/balanceiq/balanceiq/internal/knot"
	"github.com/balanceiq/balanceiq/internal/receipt"
	"github.com/balanceiq/balanceiq/internal/service"
)

// defaultOrigins covers the local frontend dev servers.
var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:3000",
}

// Config holds HTTP server settings.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// KnotService is the slice of the Knot integration the server uses. It is
// nil when Knot credentials are not configured.
type KnotService interface {
	SyncUser(ctx context.Context, userID string) (*knot.SyncResult, error)
}

// MerchantLinker exposes Knot account-linking operations.
type MerchantLinker interface {
	ListMerchants(ctx context.Context) ([]knot.Merchant, error)
	CreateSession(ctx context.Context, userID string, merchantID int) (*knot.Session, error)
}

// Deps wires the server's collaborators.
type Deps struct {
	Store    service.Storage
	Coach    *coach.Coach
	Insights *insights.Generator
	Receipts *receipt.Processor
	Knot     KnotService
	Linker   MerchantLinker
	Backend  string
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine
}

// New builds the server and registers all routes.
func New(cfg Config, deps Deps) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaultOrigins
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: slog.Default().With("component", "server"),
		engine: engine,
	}

	engine.Use(s.requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/feed", s.handleFeed)
	s.engine.GET("/stats/category", s.handleCategoryStats)

	api := s.engine.Group("/api")
	api.GET("/user/:user_id/transactions", s.handleUserTransactions)
	api.GET("/predict", s.handlePredict)
	api.GET("/coach", s.handleCoach)
	api.GET("/smart-tips", s.handleSmartTips)
	api.GET("/better-deals", s.handleBetterDeals)
	api.GET("/piggy-graph", s.handlePiggyGraph)
	api.GET("/search", s.handleSearch)
	api.GET("/ai-deals", s.handleAIDeals)
	api.POST("/receipt/process", s.handleReceipt)

	api.POST("/knot/sync", s.handleKnotSync)
	api.GET("/knot/merchants", s.handleKnotMerchants)
	api.POST("/knot/session", s.handleKnotSession)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
