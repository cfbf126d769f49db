// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package feed

import (
	"log/slog"
	"sync"

	"github.com/syncora/syncora/internal/observability"
)

// subscriberBuffer is the per-subscription channel capacity. A subscriber
// that falls this far behind starts losing events (see Broadcast).
const subscriberBuffer = 100

// Broadcaster fans events out to stream subscribers.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string][]*Subscription
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[string][]*Subscription),
	}
}

// Subscription is a live interest in one stream. Close must be called on
// every exit path of the consuming code, including error paths; an
// unreleased subscription leaks its channel and keeps receiving events.
type Subscription struct {
	stream string
	ch     chan Event
	b      *Broadcaster
	once   sync.Once
}

// Events returns the channel events are delivered on. The channel is closed
// when the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Stream returns the stream this subscription is registered on.
func (s *Subscription) Stream() string {
	return s.stream
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.remove(s)
	})
}

// Subscribe registers interest in a stream and returns the handle.
func (b *Broadcaster) Subscribe(stream string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		stream: stream,
		ch:     make(chan Event, subscriberBuffer),
		b:      b,
	}
	b.subs[stream] = append(b.subs[stream], sub)
	return sub
}

// remove detaches a subscription and closes its channel.
func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[sub.stream]
	for i, s := range subs {
		if s == sub {
			b.subs[sub.stream] = append(subs[:i], subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Broadcast delivers an event to every subscriber of its stream. Delivery
// is best-effort: a subscriber with a full buffer misses the event and the
// drop is logged, since blocking here would stall every other subscriber.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs[event.Stream] {
		select {
		case sub.ch <- event:
		default:
			observability.RecordFeedDrop()
			slog.Warn("event dropped: subscriber buffer full",
				"stream", event.Stream,
				"event_id", event.ID.String(),
				"event_type", event.Type,
			)
		}
	}
}

// SubscriberCount returns the number of live subscriptions on a stream.
func (b *Broadcaster) SubscriberCount(stream string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[stream])
}
