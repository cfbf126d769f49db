// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package feed distributes change notifications to interested subscribers.
//
// Callers register a per-resource interest (a stream name derived from a
// channel, conversation, group, or user id) and receive asynchronous push
// notifications when matching rows change. The feed carries no authorization
// state: consumers re-fetch role and membership snapshots on receipt and
// re-run the pure access checks.
package feed

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the kind of change an event describes.
type EventType string

const (
	EventMessageCreated EventType = "message.created"
	EventMessageUpdated EventType = "message.updated"
	EventMessageDeleted EventType = "message.deleted"
	EventReactionAdded  EventType = "reaction.added"
	EventChannelCreated EventType = "channel.created"
	EventChannelUpdated EventType = "channel.updated"
	EventChannelDeleted EventType = "channel.deleted"
	EventMemberJoined   EventType = "member.joined"
	EventMemberLeft     EventType = "member.left"
	EventRolesChanged   EventType = "roles.changed"
)

// Event is a single change notification. Payload is JSON shaped by the
// producer; subscribers that only need to invalidate can ignore it.
type Event struct {
	ID        ulid.ULID
	Stream    string
	Type      EventType
	Timestamp time.Time
	ActorID   string // user id that caused the change, or "system"
	Payload   []byte
}

// Stream name constructors. Events for a resource are totally ordered by
// ULID within its stream; no ordering is guaranteed across streams.

// ChannelStream returns the stream name for a channel's events.
func ChannelStream(id ulid.ULID) string { return "channel:" + id.String() }

// ConversationStream returns the stream name for a direct conversation.
func ConversationStream(id ulid.ULID) string { return "conversation:" + id.String() }

// GroupStream returns the stream name for group-level events such as role
// and membership changes.
func GroupStream(id ulid.ULID) string { return "group:" + id.String() }

// UserStream returns the stream name for events addressed to one user.
func UserStream(id ulid.ULID) string { return "user:" + id.String() }
