// Package httpserver wraps http.Server with the platform's timeout and
// shutdown conventions.
package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/R3E-Network/neostream/internal/config"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// Server is the configured HTTP listener for the service.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New builds a server from configuration. The handler is served as-is; any
// middleware chain is assembled by the caller.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start blocks serving requests until Shutdown is called or the listener
// fails. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
