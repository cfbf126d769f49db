// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package feed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ErrStreamEmpty is returned by LastEventID when a stream has no events.
var ErrStreamEmpty = errors.New("stream empty")

// poolIface abstracts the pgx pool so the store can be tested with pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventStore persists feed events to PostgreSQL so reconnecting clients can
// replay what they missed.
type EventStore struct {
	pool poolIface
}

// NewEventStore creates an event store backed by the given pool.
func NewEventStore(pool poolIface) *EventStore {
	return &EventStore{pool: pool}
}

// Append persists an event.
func (s *EventStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, stream, type, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID.String(), event.Stream, string(event.Type), event.ActorID, event.Payload, event.Timestamp)
	if err != nil {
		return oops.Code("EVENT_APPEND_FAILED").
			With("event_id", event.ID.String()).
			With("stream", event.Stream).
			Wrap(err)
	}
	return nil
}

// Replay returns up to limit events from a stream after afterID, in commit
// order. A zero afterID replays from the beginning.
func (s *EventStore) Replay(ctx context.Context, stream string, afterID ulid.ULID, limit int) ([]Event, error) {
	var rows pgx.Rows
	var err error

	if afterID.IsZero() {
		rows, err = s.pool.Query(ctx, `
			SELECT id, stream, type, actor_id, payload, created_at
			FROM events WHERE stream = $1 ORDER BY id LIMIT $2
		`, stream, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, stream, type, actor_id, payload, created_at
			FROM events WHERE stream = $1 AND id > $2 ORDER BY id LIMIT $3
		`, stream, afterID.String(), limit)
	}
	if err != nil {
		return nil, oops.Code("EVENT_QUERY_FAILED").With("stream", stream).Wrap(err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var idStr, typeStr string
		if err := rows.Scan(&idStr, &e.Stream, &typeStr, &e.ActorID, &e.Payload, &e.Timestamp); err != nil {
			return nil, oops.Code("EVENT_SCAN_FAILED").With("stream", stream).Wrap(err)
		}
		e.ID, err = ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("EVENT_PARSE_FAILED").With("stream", stream).With("id", idStr).Wrap(err)
		}
		e.Type = EventType(typeStr)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("EVENT_ITERATE_FAILED").With("stream", stream).Wrap(err)
	}
	return events, nil
}

// LastEventID returns the most recent event id on a stream, or
// ErrStreamEmpty when there is none.
func (s *EventStore) LastEventID(ctx context.Context, stream string) (ulid.ULID, error) {
	var idStr string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM events WHERE stream = $1 ORDER BY id DESC LIMIT 1
	`, stream).Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, ErrStreamEmpty
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("EVENT_QUERY_FAILED").With("stream", stream).Wrap(err)
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return ulid.ULID{}, oops.Code("EVENT_PARSE_FAILED").With("stream", stream).With("id", idStr).Wrap(err)
	}
	return id, nil
}
