// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer is the part of *http.Server that the service drives. Tests
// pass a fake to exercise shutdown without binding a port.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService adapts the blocking ListenAndServe call to suture's
// context-driven Serve.
//
// Lifecycle: Serve starts the listener in a goroutine and then waits. If the
// listener fails (port in use, for example) Serve returns the error and the
// supervisor restarts the service with backoff. When the supervisor cancels
// ctx, Serve calls Shutdown on a fresh context bounded by the shutdown
// timeout, so in-flight recommendation requests can finish, and returns once
// the listener goroutine has exited.
//
// The recommend API is wired like this in cmd/server:
//
//	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: api.NewRouter(handler, mw).SetupChi()}
//	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server for supervision.
//
// shutdownTimeout bounds graceful shutdown. It should exceed the longest
// request the server handles; a synchronous cold-start rebuild is the slow
// case here. A non-positive value means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service.
//
// It returns a wrapped listener error if the server stops on its own, the
// Shutdown error if graceful shutdown times out, and ctx.Err() after a clean
// shutdown. http.ErrServerClosed is expected during shutdown and is never
// reported.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled; shutdown needs its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String identifies the service in supervisor logs.
func (h *HTTPServerService) String() string {
	return h.name
}
