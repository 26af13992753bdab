// internal/api/server.go
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/stream"
	"github.com/rovshanmuradov/mintwatch/internal/utils/metrics"
)

// DefaultHeartbeat is the idle keep-alive period of streaming responses.
const DefaultHeartbeat = 15 * time.Second

// Streamer serves stored and live events.
type Streamer interface {
	Stream(ctx context.Context, f stream.Filter, replay int) <-chan domain.MintEvent
	Query(f stream.Filter, req stream.PageRequest) stream.Page
}

// Launchpads exposes the launchpad catalog.
type Launchpads interface {
	Available() []string
	Active() []string
	SetActive(names []string) []string
}

// Server is the HTTP surface of the feed.
type Server struct {
	streamer   Streamer
	launchpads Launchpads
	metrics    *metrics.Collector
	heartbeat  time.Duration
	now        func() time.Time
	logger     *zap.Logger

	srv *http.Server
}

// NewServer builds the server. m may be nil, then /metrics is not served.
func NewServer(addr string, streamer Streamer, launchpads Launchpads, m *metrics.Collector, logger *zap.Logger) *Server {
	s := &Server{
		streamer:   streamer,
		launchpads: launchpads,
		metrics:    m,
		heartbeat:  DefaultHeartbeat,
		now:        time.Now,
		logger:     logger.Named("api"),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /mints", s.handleMints)
	mux.HandleFunc("GET /mints/stream", s.handleSSE)
	mux.HandleFunc("GET /mints/ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /launchpads", s.handleLaunchpads)
	mux.HandleFunc("GET /launchpads/active", s.handleActiveLaunchpads)
	mux.HandleFunc("POST /launchpads/select", s.handleSelectLaunchpads)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.withLogging(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }
	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
