package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/logger"
)

// shutdownTimeout bounds how long in-flight requests may run once a stop
// signal arrives.
const shutdownTimeout = 30 * time.Second

// Server represents the gateway's HTTP server
type Server struct {
	Handler http.Handler
	Opts    *options.Options

	stop chan struct{}
}

// ListenAndServe serves traffic on the configured address until a stop
// signal arrives, then drains in-flight requests before returning.
func (s *Server) ListenAndServe() {
	srv := &http.Server{
		Addr:    s.Opts.Server.Address,
		Handler: s.Handler,
	}

	go func() {
		<-s.stop

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Errorf("HTTP: error during shutdown: %v", err)
		}
	}()

	logger.Printf("HTTP: listening on %s", s.Opts.Server.Address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP: error serving on %s: %v", s.Opts.Server.Address, err)
	}

	logger.Printf("HTTP: closing %s", s.Opts.Server.Address)
}
