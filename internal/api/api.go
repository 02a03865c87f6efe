// Package api exposes the search service over HTTP: ranked and fuzzy
// catalog queries, token renewal, and health, all behind bearer-token auth.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/hideoutdb/searchd/internal/config"
	"github.com/hideoutdb/searchd/internal/index"
	"github.com/hideoutdb/searchd/internal/state"
)

// Searcher is the slice of the index engine the HTTP layer needs.
type Searcher interface {
	Query(ctx context.Context, term string, opts index.QueryOptions) ([]index.Document, error)
	QueryFuzzy(ctx context.Context, term string, opts index.QueryOptions) ([]index.Document, error)
	Generation() uint64
}

// Server is the HTTP facade over the index engine and the freshness
// controller's status.
type Server struct {
	cfg      *config.Config
	searcher Searcher
	status   *state.Status
	cache    *lru.Cache[string, searchResponse]
	limiter  *rate.Limiter
	logger   *slog.Logger
	router   chi.Router
}

// NewServer wires the routes and middleware.
func NewServer(cfg *config.Config, searcher Searcher, status *state.Status) (*Server, error) {
	cache, err := lru.New[string, searchResponse](cfg.Search.CacheSize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		searcher: searcher,
		status:   status,
		cache:    cache,
		logger:   slog.Default().With("component", "api"),
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.Burst)
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(s.rateLimit)

	// The token endpoint does its own parsing so expired tokens can be
	// renewed; everything else goes through strict auth.
	r.Get("/token", s.handleToken)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/search", s.handleSearch)
		r.Get("/health", s.handleHealth)
	})

	s.router = r
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer builds the net/http server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}
