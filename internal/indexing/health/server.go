package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

// Snapshotter returns the latest published verdict.
type Snapshotter interface {
	Load() domain.HealthVerdict
}

// Endpoints are the upstream URLs shown on the dashboard.
type Endpoints struct {
	Subgraph string
	RPC      string
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	store     Snapshotter
	endpoints Endpoints
	server    *http.Server
}

// NewServer creates a new health server. metrics serves /metrics.
func NewServer(store Snapshotter, metrics http.Handler, endpoints Endpoints, port int) *Server {
	r := mux.NewRouter()
	s := &Server{
		store:     store,
		endpoints: endpoints,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)

	return s
}

// Listen binds the listen address. Bind failures surface here rather than in Serve.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	return ln, nil
}

// Serve serves HTTP on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	verdict := s.store.Load()

	w.Header().Set("Content-Type", "application/json")
	if verdict.Healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(verdict)
}
