// Package server serves the schema graph, its diagrams and the schema
// files over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/syssam/schemaviz"
	"github.com/syssam/schemaviz/compiler/gen/dot"
	"github.com/syssam/schemaviz/internal/config"
	"github.com/syssam/schemaviz/internal/metrics"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		if c != nil {
			s.metrics = c
		}
	}
}

// WithCache replaces the in-memory cache.
func WithCache(c schemaviz.Cache) Option {
	return func(s *Server) {
		if c != nil {
			s.cache = c
		}
	}
}

// Server is the schemaviz HTTP server.
type Server struct {
	cfg      *config.Config
	dirs     []string
	graphviz dot.Graphviz
	logger   *zap.Logger
	metrics  *metrics.Collector
	cache    schemaviz.Cache
}

// New returns a server for cfg. Schema directories are made absolute.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		graphviz: dot.Graphviz{Binary: cfg.Graphviz},
		logger:   zap.NewNop(),
		cache:    NewMemoryCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCollector()
	}
	for _, dir := range cfg.SchemaDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		s.dirs = append(s.dirs, abs)
	}
	return s, nil
}

// Handler returns the HTTP handler with every route and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, cacheHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.graph)
		r.Get("/diagram/{format}", s.diagram)
		r.Get("/image/{format}", s.image)
		r.Get("/files", s.files)
		r.Get("/file", s.file)
		r.Get("/adrs", s.adrs)
	})

	return r
}

// Invalidate drops every cached graph and diagram.
func (s *Server) Invalidate(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("schema graph server listening",
			zap.String("addr", s.cfg.Addr),
			zap.Strings("schema_dirs", s.dirs),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
