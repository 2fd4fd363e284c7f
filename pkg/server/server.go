package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mfs-exporter/pkg/config"
	"github.com/mfs-exporter/pkg/logger"
	"github.com/mfs-exporter/pkg/metrics"
)

const defaultShutdownTimeout = 5 * time.Second

// Server serves the current snapshot on /metrics.
type Server struct {
	cfg      config.ServerConfig
	logger   *logger.Logger
	server   *http.Server
	registry *prometheus.Registry
	store    *metrics.Store
	mux      *customMux

	mu       sync.Mutex
	listener net.Listener
}

// statusWriter captures the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// customMux remembers registered patterns for the startup log.
type customMux struct {
	http.ServeMux
	routes []string
	mu     sync.Mutex
}

func (m *customMux) Handle(pattern string, handler http.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, pattern)
	m.ServeMux.Handle(pattern, handler)
}

func (m *customMux) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	m.Handle(pattern, http.HandlerFunc(handler))
}

func (m *customMux) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.routes))
	copy(out, m.routes)
	return out
}

// NewHTTPServer creates the server. registry is what /metrics exposes;
// store tells whether a first snapshot was ever published.
func NewHTTPServer(cfg config.ServerConfig, registry *prometheus.Registry, store *metrics.Store) *Server {
	mux := &customMux{}
	srv := &Server{
		cfg:      cfg,
		logger:   logger.With("server"),
		registry: registry,
		store:    store,
		mux:      mux,
	}
	srv.registerEndpoints()

	srv.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.logMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return srv
}

// Handler returns the root handler including the logging middleware.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Debug(
			"HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>MooseFS Exporter</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		h1 { color: #333; }
		a { display: block; margin: 8px 0; font-size: 18px; }
		code { background-color: #f0f0f0; padding: 2px 4px; }
	</style>
</head>
<body>
	<h1>MooseFS Exporter</h1>
	<p>Last collection: <code>%s</code></p>
	<h2>Available Endpoints:</h2>
	<a href="/metrics">/metrics - Prometheus metrics</a>
	<a href="/health">/health - health check</a>
</body>
</html>
`

func (s *Server) registerEndpoints() {
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		last := "never"
		if snap := s.store.Load(); snap != nil {
			last = snap.CollectedAt().UTC().Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, indexHTML, last)
	})

	promHandler := promhttp.InstrumentMetricHandler(s.registry, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(s.logger),
		ErrorHandling: promhttp.ContinueOnError,
	}))
	s.mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if s.store.Load() == nil {
			http.Error(w, "no successful MooseFS collection yet", http.StatusInternalServerError)
			return
		}
		promHandler.ServeHTTP(w, r)
	})

	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// Start binds the listen address and serves in the background. Bind
// errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info(
		"starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.String("handle_funcs", strings.Join(s.mux.Routes(), ",")),
	)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Shutdown drains in-flight requests for up to five seconds.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded")
			return nil
		}
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server shutdown successfully")
	return nil
}
