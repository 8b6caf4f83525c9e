package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"controlling_pod/internal/health"
	"controlling_pod/internal/models"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle and
// reports itself as the http-server health record.
type Server struct {
	store *health.Store

	mu         sync.Mutex
	httpServer *http.Server
}

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

func New(store *health.Store) *Server {
	store.Set(health.HTTPServer, models.StatusNotStarted, "")
	return &Server{store: store}
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr accepts "8080" or ":8080".
func normalizeAddr(port string) string {
	if port == "" {
		return ""
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run listens on port and serves handler until Shutdown. A clean shutdown
// returns nil.
func (s *Server) Run(port string, handler http.Handler) error {
	addr := normalizeAddr(port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.store.Failed(health.HTTPServer, err)
		return err
	}
	return s.Serve(ln, handler)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ln net.Listener, handler http.Handler) error {
	srv := newHTTPServer(ln.Addr().String(), handler)
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.store.Healthy(health.HTTPServer)
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		s.store.Set(health.HTTPServer, models.StatusNotStarted, "stopped")
		return nil
	}
	s.store.Failed(health.HTTPServer, err)
	return err
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
