package stubapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps the stub's HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds a Server around the stub routes.
func NewServer(addr string, logger *zap.Logger, st *Store) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := BuildRouter(logger, st)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
