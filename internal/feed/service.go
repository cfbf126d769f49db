// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package feed

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service couples the durable event store with live fan-out. Producers call
// Publish after a successful write; consumers Subscribe for pushes and
// Replay to catch up after a disconnect.
type Service struct {
	store       *EventStore
	broadcaster *Broadcaster
}

// NewService creates a feed service. A nil store disables durability; events
// are then fan-out only, which is what unit tests and ephemeral tooling use.
func NewService(store *EventStore, broadcaster *Broadcaster) *Service {
	if broadcaster == nil {
		broadcaster = NewBroadcaster()
	}
	return &Service{store: store, broadcaster: broadcaster}
}

// Publish stamps, persists, and fans out an event. The event is not
// broadcast if persistence fails, so replay never lags a live delivery.
func (s *Service) Publish(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = ulid.Make()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Stream == "" {
		return oops.In("feed").Code("EVENT_NO_STREAM").Errorf("event has no stream")
	}

	if s.store != nil {
		if err := s.store.Append(ctx, event); err != nil {
			return err
		}
	}
	s.broadcaster.Broadcast(event)
	return nil
}

// Subscribe registers interest in a stream.
func (s *Service) Subscribe(stream string) *Subscription {
	return s.broadcaster.Subscribe(stream)
}

// Replay returns persisted events from a stream after afterID. Returns nil
// when the service runs without a store.
func (s *Service) Replay(ctx context.Context, stream string, afterID ulid.ULID, limit int) ([]Event, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Replay(ctx, stream, afterID, limit)
}
