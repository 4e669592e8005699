package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryankumar/taskpool/internal/logger"
)

// Server serves /metrics and /healthz and shuts down without dropping
// in-flight scrapes. Once shutdown begins /healthz answers 503.
type Server struct {
	srv          *http.Server
	log          *logger.AppLogger
	access       *logger.AccessLogger
	shuttingDown atomic.Bool
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithServerLogger logs server lifecycle events to l
func WithServerLogger(l *logger.AppLogger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithAccessLogger logs every request to a
func WithAccessLogger(a *logger.AccessLogger) ServerOption {
	return func(s *Server) {
		s.access = a
	}
}

// NewServer creates a server for addr exposing gatherer
func NewServer(addr string, gatherer prom.Gatherer, opts ...ServerOption) *Server {
	if gatherer == nil {
		gatherer = prom.DefaultGatherer
	}

	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.health)

	var handler http.Handler = mux
	if s.access != nil {
		handler = s.access.Middleware(mux)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	if s.IsShuttingDown() {
		w.Header().Set("Connection", "close")
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe listens on the configured address and blocks until shutdown
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown; a clean shutdown returns nil
func (s *Server) Serve(ln net.Listener) error {
	if s.log != nil {
		s.log.Info("metrics server listening", "", []string{"metrics"}, map[string]any{"addr": ln.Addr().String()})
	}
	err := s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for active ones until ctx is done
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if s.log != nil {
		s.log.Info("metrics server shutting down", "", []string{"metrics"}, nil)
	}
	s.srv.SetKeepAlivesEnabled(false)
	return s.srv.Shutdown(ctx)
}

// IsShuttingDown reports whether Shutdown was called
func (s *Server) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}
