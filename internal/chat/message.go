// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package chat implements the Syncora collaboration domain: groups,
// channels, members, messages, and direct conversations. All mutation paths
// go through Service, which consults the access package before any write.
package chat

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Message is a single post in a channel or a direct conversation. Exactly
// one of ChannelID or ConversationID is set.
type Message struct {
	ID             ulid.ULID
	ChannelID      *ulid.ULID
	ConversationID *ulid.ULID
	AuthorID       ulid.ULID
	Content        string
	CreatedAt      time.Time
	EditedAt       *time.Time
}

// NewChannelMessage creates a validated message bound to a channel.
func NewChannelMessage(channelID, authorID ulid.ULID, content string) (*Message, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	return &Message{
		ID:        ulid.Make(),
		ChannelID: &channelID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// NewDirectMessage creates a validated message bound to a conversation.
func NewDirectMessage(conversationID, authorID ulid.ULID, content string) (*Message, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	return &Message{
		ID:             ulid.Make(),
		ConversationID: &conversationID,
		AuthorID:       authorID,
		Content:        content,
		CreatedAt:      time.Now(),
	}, nil
}

// Reaction is a single emoji response on a message. One user may react with
// a given emoji at most once.
type Reaction struct {
	MessageID ulid.ULID
	UserID    ulid.ULID
	Emoji     string
	CreatedAt time.Time
}

// Attachment is file metadata bound to a message. The bytes live in the
// object store under StorageKey; this row only records what was uploaded.
type Attachment struct {
	ID          ulid.ULID
	MessageID   ulid.ULID
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	CreatedAt   time.Time
}

// Conversation is a direct-message space between a fixed set of users,
// outside any group. Visibility is participation: no roles apply.
type Conversation struct {
	ID             ulid.ULID
	ParticipantIDs []ulid.ULID
	CreatedAt      time.Time
}

// HasParticipant reports whether the user takes part in the conversation.
func (c *Conversation) HasParticipant(userID ulid.ULID) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ListOptions carries pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultLimit is applied when a list query passes no limit.
const DefaultLimit = 50
