// Package server exposes the places gateway over HTTP: routing, request
// validation, per-client rate limiting, and the stable JSON error
// envelope.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/abr13/demo-crud-review/pkg/places"
	"github.com/abr13/demo-crud-review/pkg/ratelimit"
)

// Prometheus metrics for gateway HTTP traffic.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "places_http_requests_total",
		Help: "Total gateway requests by route, method and status",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "places_http_request_duration_seconds",
		Help:    "Gateway request duration in seconds by route",
		Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5},
	}, []string{"route"})
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// PlacesService is the slice of the orchestrator the HTTP layer needs.
type PlacesService interface {
	Search(ctx context.Context, q places.SearchQuery) (*places.SearchResponse, error)
	PlaceDetails(ctx context.Context, placeID string) (*places.PlaceDetail, error)
	Deeplink(ctx context.Context, placeID string) (*places.Deeplink, error)
	Health(ctx context.Context) places.Health
}

// Limiter is the per-client request limiter the middleware consults.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) ratelimit.Decision
}

// Options configures the HTTP server.
type Options struct {
	// Addr to listen on, e.g. ":8080".
	Addr string

	// AuthToken, when non-empty, requires "Authorization: Bearer <token>"
	// on the /v1 routes.
	AuthToken string

	// RequestTimeout bounds the total handling time of one request.
	RequestTimeout time.Duration
}

// Server is the gateway HTTP server.
type Server struct {
	router  chi.Router
	svc     PlacesService
	limiter Limiter
	logger  zerolog.Logger
	opts    Options
	started time.Time

	httpServer *http.Server
}

// New assembles the router and middleware chain. The limiter may be nil,
// which disables rate limiting (used by tests and the examples).
func New(svc PlacesService, limiter Limiter, logger zerolog.Logger, opts Options) *Server {
	if svc == nil {
		panic("server: places service is required")
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		svc:     svc,
		limiter: limiter,
		logger:  logger.With().Str("component", "http").Logger(),
		opts:    opts,
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(s.traceMiddleware)
	r.Use(s.logMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(s.rateLimitMiddleware)
		r.Get("/search", s.handleSearch)
		r.Get("/place/{placeID}", s.handlePlaceDetails)
		r.Get("/deeplink/{placeID}", s.handleDeeplink)
		r.Get("/health", s.handleHealth)
	})

	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the assembled router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           http.TimeoutHandler(s.router, s.opts.RequestTimeout, ""),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info().Str("addr", s.opts.Addr).Msg("Starting places gateway")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server, letting in-flight requests finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info().Msg("Shutting down places gateway")
	return s.httpServer.Shutdown(ctx)
}
