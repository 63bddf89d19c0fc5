// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"fmt"
)

// MessageRouter is satisfied by *eventprocessor.Router.
type MessageRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// RouterService runs the rebuild queue consumer. Close waits for the
// in-flight rebuild up to the router's close timeout.
type RouterService struct {
	router MessageRouter
	name   string
}

// NewRouterService wraps router.
func NewRouterService(router MessageRouter) *RouterService {
	return &RouterService{router: router, name: "rebuild-router"}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.router.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("rebuild router stopped: %w", err)
		}
		return errors.New("rebuild router stopped unexpectedly")
	case <-ctx.Done():
		if err := s.router.Close(); err != nil {
			<-errCh
			return fmt.Errorf("rebuild router close failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String identifies the service in supervisor logs.
func (s *RouterService) String() string {
	return s.name
}
