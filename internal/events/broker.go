/*-------------------------------------------------------------------------
 *
 * broker.go
 *    Audit event broker
 *
 * Fans audit events out to in-process subscribers so API clients can
 * stream an instance's trail live over websockets. Persistence stays
 * with the database; the broker only forwards.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/events/broker.go
 *
 *-------------------------------------------------------------------------
 */

package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
)

/* subscriberBuffer bounds how far a slow consumer may lag */
const subscriberBuffer = 64

type subscriber struct {
	id         int64
	instanceID *uuid.UUID
	ch         chan db.AuditEvent
}

/* Broker fans audit events out to live subscribers */
type Broker struct {
	mu          sync.RWMutex
	nextID      int64
	subscribers map[int64]*subscriber
}

/* NewBroker creates a new broker */
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[int64]*subscriber)}
}

/*
 * Subscribe registers a consumer. A nil instanceID receives every
 * event; otherwise only that instance's events are delivered. The
 * returned cancel func must be called when the consumer is done.
 */
func (b *Broker) Subscribe(instanceID *uuid.UUID) (<-chan db.AuditEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		id:         b.nextID,
		instanceID: instanceID,
		ch:         make(chan db.AuditEvent, subscriberBuffer),
	}
	b.subscribers[sub.id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[sub.id]; ok {
			delete(b.subscribers, sub.id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

/*
 * Publish forwards an event to every matching subscriber. Delivery is
 * non-blocking: a subscriber whose buffer is full misses the event and
 * is expected to re-sync from the persisted trail.
 */
func (b *Broker) Publish(event db.AuditEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if sub.instanceID != nil && *sub.instanceID != event.InstanceID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			log.Warn().
				Str("instance_id", event.InstanceID.String()).
				Str("event_type", event.EventType).
				Msg("dropping audit event for slow subscriber")
		}
	}
}

/* SubscriberCount reports how many consumers are attached */
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

/*
 * StreamingQueries decorates *db.Queries so every persisted audit
 * event is also published to the broker. It satisfies the engine's
 * Store interface through embedding.
 */
type StreamingQueries struct {
	*db.Queries
	broker *Broker
}

/* NewStreamingQueries wraps queries with live event publication */
func NewStreamingQueries(queries *db.Queries, broker *Broker) *StreamingQueries {
	return &StreamingQueries{Queries: queries, broker: broker}
}

/* InsertAuditEvent persists the event, then forwards it to subscribers */
func (s *StreamingQueries) InsertAuditEvent(ctx context.Context, event *db.AuditEvent) error {
	if err := s.Queries.InsertAuditEvent(ctx, event); err != nil {
		return err
	}
	s.broker.Publish(*event)
	return nil
}
