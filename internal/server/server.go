// Package server provides the HTTP API for Kanren.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/config"
	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/internal/pipeline"
	"github.com/hiro0218/kanren/internal/search"
)

// snapshot holds the engines and aggregates from one build run. The server
// swaps the whole snapshot on reload so in-flight requests keep a consistent
// view.
type snapshot struct {
	search        *search.CachedEngine
	relatedPosts  models.RelatedPostsMap
	relatedTags   models.RelatedTagMap
	documentCount int
	runID         string
	builtAt       time.Time
}

// Server is the HTTP server for the Kanren API.
type Server struct {
	pipeline *pipeline.Pipeline
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	mu   sync.RWMutex
	snap *snapshot
}

// NewServer creates a server with the given dependencies. Call Reload before
// Start to build the first snapshot.
func NewServer(pl *pipeline.Pipeline, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		pipeline: pl,
		config:   cfg,
		logger:   logger,
	}
}

// Reload runs the build pipeline and swaps in the resulting snapshot.
func (s *Server) Reload(ctx context.Context) error {
	result, err := s.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	engine := search.NewEngine(result.Index, result.Records, s.config.Search.MaxResults, s.logger)
	snap := &snapshot{
		search:        search.NewCachedEngine(engine, s.config.Search.CacheSize),
		relatedPosts:  result.RelatedPosts,
		relatedTags:   result.RelatedTags,
		documentCount: result.DocumentCount,
		runID:         result.RunID,
		builtAt:       time.Now(),
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Info("snapshot reloaded",
		zap.String("run_id", result.RunID),
		zap.Int("documents", result.DocumentCount),
		zap.Duration("build_duration", result.Duration))
	return nil
}

// Router builds the chi router. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/related/{slug}", s.handleRelatedPosts)
	r.Get("/api/v1/related-tags/{tag}", s.handleRelatedTags)
	r.Post("/api/v1/rebuild", s.handleRebuild)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
