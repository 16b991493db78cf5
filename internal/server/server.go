// Package server is the thin HTTP shell over internal/service. It owns the
// router and middleware chain; every handler delegates to the service and
// maps failure classes to status codes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/derickschaefer/ecowise/internal/metrics"
	"github.com/derickschaefer/ecowise/internal/ratelimit"
	"github.com/derickschaefer/ecowise/internal/service"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr string
	// RequestTimeout bounds each request's context, including all provider
	// calls made for it.
	RequestTimeout time.Duration
	// TrustProxy keys the rate limiter on X-Forwarded-For / X-Real-IP.
	TrustProxy bool
	Version    string
}

// Server serves the JSON API.
type Server struct {
	opts      Options
	svc       *service.Service
	limiter   *ratelimit.SlidingWindow
	collector *metrics.Collector
	logger    *slog.Logger
	started   time.Time
}

// New creates a Server. The limiter and collector are owned by the caller.
func New(svc *service.Service, limiter *ratelimit.SlidingWindow, collector *metrics.Collector, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts:      opts,
		svc:       svc,
		limiter:   limiter,
		collector: collector,
		logger:    logger,
		started:   time.Now(),
	}
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.logRequests)
	r.Use(metrics.Middleware(s.collector))
	r.Use(middleware.Recoverer)
	r.Use(ratelimit.Middleware(s.limiter, nil, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, service.ErrThrottled)
	}))
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/health/apis", s.handleProviderHealth)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/carbon/calculate", s.handleCarbon)
		r.Get("/weather/recommendations", s.handleWeather)
		r.Post("/transport/route-optimize", s.handleRoutes)
	})

	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.limiter.StartSweeper(ctx, 0)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.opts.Addr, "version", s.opts.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
