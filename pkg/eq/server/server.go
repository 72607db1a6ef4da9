// Package server exposes strategies, the snapshot and screening over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/komsit37/equisense/pkg/eq/columns"
	"github.com/komsit37/equisense/pkg/eq/refresh"
	"github.com/komsit37/equisense/pkg/eq/screen"
	"github.com/komsit37/equisense/pkg/eq/strategy"
	"github.com/komsit37/equisense/pkg/eq/types"
)

// Snapshots loads the persisted dataset.
type Snapshots interface {
	Load() (types.Snapshot, error)
}

// Refresher rebuilds the snapshot.
type Refresher interface {
	Run(ctx context.Context) (refresh.Report, error)
	Running() bool
	Last() (refresh.Report, bool)
}

// Config holds server configuration
type Config struct {
	Addr      string
	Log       zerolog.Logger
	Catalog   strategy.Catalog
	Snapshots Snapshots
	Refresher Refresher
	Labels    columns.Labels
	// Price fills the missing bound when a request sets only one of
	// min_price and max_price.
	Price screen.PriceRange
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config

	// ctx outlives requests; background refreshes run on it.
	ctx    context.Context
	cancel context.CancelFunc
	bg     chan struct{}
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		bg:     make(chan struct{}, 1),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/strategies", s.handleStrategies)
		r.Get("/snapshot", s.handleSnapshot)
		r.Route("/screen/{id}", func(r chi.Router) {
			r.Get("/", s.handleScreen)
			r.Get("/csv", s.handleScreenCSV)
		})
		r.Route("/refresh", func(r chi.Router) {
			r.Get("/", s.handleRefreshStatus)
			r.Post("/", s.handleRefresh)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("Starting HTTP server")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, cancels a background refresh and
// waits for it to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	err := s.server.Shutdown(ctx)
	s.cancel()
	select {
	case s.bg <- struct{}{}:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
