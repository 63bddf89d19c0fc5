// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// ErrQueueClosed is returned when publishing to a closed queue.
var ErrQueueClosed = errors.New("rebuild queue closed")

// QueueConfig holds the in-process pub/sub settings.
type QueueConfig struct {
	// Buffer is the per-subscriber output channel size.
	Buffer int64
	// Topic defaults to TopicRebuild.
	Topic string
}

// DefaultQueueConfig returns production defaults for the queue.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Buffer: 64,
		Topic:  TopicRebuild,
	}
}

// Queue publishes rebuild requests onto an in-process Watermill pub/sub.
// It implements recommend.RebuildScheduler.
//
// The pub/sub is persistent: a request published while no consumer is
// subscribed (before the router starts or while it restarts) is kept and
// delivered when the consumer subscribes. A restarted consumer also sees
// requests it already handled; RebuildHandler skips those because a newer
// snapshot exists.
type Queue struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger watermill.LoggerAdapter
	closed atomic.Bool
}

var _ recommend.RebuildScheduler = (*Queue)(nil)

// NewQueue creates a queue. A nil logger discards Watermill's output.
func NewQueue(cfg QueueConfig, logger watermill.LoggerAdapter) *Queue {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicRebuild
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.Buffer,
		Persistent:          true,
	}, logger)
	return &Queue{pubsub: pubsub, topic: cfg.Topic, logger: logger}
}

// Topic returns the topic requests are published on.
func (q *Queue) Topic() string {
	return q.topic
}

// Subscriber returns the subscriber side for the router. Closing it is a
// no-op so a stopping router leaves the queue usable; Queue.Close owns the
// pub/sub.
func (q *Queue) Subscriber() message.Subscriber {
	return sharedSubscriber{q.pubsub}
}

type sharedSubscriber struct {
	message.Subscriber
}

func (sharedSubscriber) Close() error { return nil }

// ScheduleRebuild publishes req as a RebuildRequested event.
func (q *Queue) ScheduleRebuild(ctx context.Context, req recommend.RebuildRequest) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	event := NewRebuildRequested(req)
	payload, err := Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("reason", event.Reason)
	if event.UserID != "" {
		msg.Metadata.Set("user_id", event.UserID)
	}

	if err := q.pubsub.Publish(q.topic, msg); err != nil {
		return fmt.Errorf("publish rebuild request: %w", err)
	}
	metrics.RebuildMessages.WithLabelValues("published").Inc()
	q.logger.Debug("Rebuild requested", watermill.LogFields{
		"event_id": event.ID,
		"reason":   event.Reason,
		"user_id":  event.UserID,
	})
	return nil
}

// Close stops the pub/sub and closes subscriber channels.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	return q.pubsub.Close()
}
