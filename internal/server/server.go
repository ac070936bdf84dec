// Package server wraps the HTTP server lifecycle: listen, optional TLS,
// graceful shutdown.
package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"recorder-notifier/internal/common/logging"
)

// Server represents the notifier's HTTP server
type Server struct {
	srv     *http.Server
	tlsCert string
	tlsKey  string
}

// New creates a new server instance
func New(handler http.Handler, port, tlsCert, tlsKey string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		tlsCert: tlsCert,
		tlsKey:  tlsKey,
	}
}

// Start runs the server in a background goroutine. Failures after startup
// are logged; they cannot be returned to the caller.
func (s *Server) Start() {
	if s.tlsCert != "" && s.tlsKey != "" {
		s.srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		go func() {
			if err := s.srv.ListenAndServeTLS(s.tlsCert, s.tlsKey); err != nil && err != http.ErrServerClosed {
				logging.Error("HTTPS server stopped unexpectedly", err)
			}
		}()
		return
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server stopped unexpectedly", err)
		}
	}()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
