// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes a catalog over HTTP: the paper list, paper detail,
// search and corpus statistics endpoints, plus health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/catalog"
	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// DefaultPort is the port used when none is configured.
const DefaultPort = 8080

// Options holds configuration for the HTTP server.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string

	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	// Empty disables the metrics endpoint.
	MetricsPath string

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds how long in-flight requests may run after the
	// serve context is cancelled.
	ShutdownTimeout time.Duration
}

// NewOptions maps the server section of the configuration to Options.
func NewOptions(cfg types.ServerConfig) Options {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	return Options{
		Addr:              ":" + strconv.Itoa(port),
		MetricsPath:       cfg.MetricsPath,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}
}

// Server serves one catalog.
type Server struct {
	catalog *catalog.Catalog
	metrics *Metrics
	opts    Options
}

// New returns a Server for c. The catalog must not be modified afterwards.
func New(c *catalog.Catalog, opts Options) *Server {
	return &Server{
		catalog: c,
		metrics: NewMetrics(),
		opts:    opts,
	}
}

// Handler returns the routed handler wrapped in the logging and recovery
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/papers", s.route("papers", s.handleListPapers))
	mux.Handle("/papers/", s.route("paper", s.handleGetPaper))
	mux.Handle("/search", s.route("search", s.handleSearch))
	mux.Handle("/stats", s.route("stats", s.handleStats))
	mux.Handle("/healthz", s.route("healthz", s.handleHealth))
	if s.opts.MetricsPath != "" {
		mux.Handle(s.opts.MetricsPath, s.metrics.Handler())
	}
	mux.Handle("/", s.route("unknown", s.handleNotFound))

	return WithLogger(WithRecovery(mux))
}

// route restricts h to GET and records request metrics under name.
func (s *Server) route(name string, h http.HandlerFunc) http.Handler {
	return s.metrics.Instrument(name, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}))
}

// HTTPServer builds the *http.Server for s.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
	}
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := s.HTTPServer()
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "ArXiv server running",
			zap.String("addr", ln.Addr().String()),
			zap.Int("papers", s.catalog.Len()),
		)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down server")
	timeout := s.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on Options.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}
