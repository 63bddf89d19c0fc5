// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Router wraps the Watermill Router with pre-configured middleware.
// Handler errors are retried with exponential backoff and panics are
// converted to errors. A message that still fails is nacked and logged.
//
// A watermill router runs once. Router keeps the consumer registrations and
// builds a fresh watermill router when Run is called after a previous run
// ended, so the supervisor can restart the messaging layer:
//
//	r, _ := eventprocessor.NewRouter(&cfg, logger)
//	eventprocessor.NewRebuildHandler(engine, log).Register(r, queue)
//	go r.Run(ctx) // may be called again after Close
type Router struct {
	config RouterConfig
	logger watermill.LoggerAdapter

	mu        sync.Mutex
	current   *message.Router
	used      bool
	consumers []consumer

	running atomic.Bool
}

type consumer struct {
	name       string
	topic      string
	subscriber message.Subscriber
	handler    message.NoPublishHandlerFunc
}

// NewRouter creates a new Watermill Router with Recoverer and Retry
// middleware installed.
func NewRouter(cfg *RouterConfig, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	r := &Router{config: *cfg, logger: logger}
	wmRouter, err := r.build()
	if err != nil {
		return nil, err
	}
	r.current = wmRouter
	return r, nil
}

func (r *Router) build() (*message.Router, error) {
	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: r.config.CloseTimeout,
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: recover panics first so a panicking handler is retried.
	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      r.config.RetryMaxRetries,
		InitialInterval: r.config.RetryInitialInterval,
		MaxInterval:     r.config.RetryMaxInterval,
		Multiplier:      r.config.RetryMultiplier,
		Logger:          r.logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)
	return wmRouter, nil
}

// AddConsumerHandler registers a handler that doesn't produce output
// messages. The registration is replayed on every restart.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers = append(r.consumers, consumer{name: name, topic: subscribeTopic, subscriber: subscriber, handler: handler})
	return r.current.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
}

// Run starts the router and blocks until context cancellation or Close().
func (r *Router) Run(ctx context.Context) error {
	wmRouter, err := r.next()
	if err != nil {
		return err
	}
	r.running.Store(true)
	defer r.running.Store(false)
	return wmRouter.Run(ctx)
}

// next returns the router for this run, rebuilding it when the current one
// has already run.
func (r *Router) next() (*message.Router, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.used {
		r.used = true
		return r.current, nil
	}

	wmRouter, err := r.build()
	if err != nil {
		return nil, err
	}
	for _, c := range r.consumers {
		wmRouter.AddConsumerHandler(c.name, c.topic, c.subscriber, c.handler)
	}
	r.current = wmRouter
	return wmRouter, nil
}

// Running returns a channel that closes when the current run has started.
func (r *Router) Running() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Running()
}

// Close gracefully stops the current run.
// Waits for in-flight messages to complete up to CloseTimeout.
func (r *Router) Close() error {
	r.mu.Lock()
	wmRouter := r.current
	r.mu.Unlock()
	return wmRouter.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Handlers returns the number of registered handlers.
func (r *Router) Handlers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.consumers)
}
