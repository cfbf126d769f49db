// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package chat

import (
	"context"

	"github.com/oklog/ulid/v2"

	"github.com/syncora/syncora/internal/access"
)

// GroupRepository manages group persistence.
type GroupRepository interface {
	// Get retrieves a group by ID.
	Get(ctx context.Context, id ulid.ULID) (*access.Group, error)

	// Create persists a new group.
	Create(ctx context.Context, group *access.Group) error

	// Update modifies an existing group.
	Update(ctx context.Context, group *access.Group) error

	// Delete removes a group. Roles, channels, members, and messages of the
	// group are removed with it.
	Delete(ctx context.Context, id ulid.ULID) error

	// ListForUser returns the groups a user is a member of.
	ListForUser(ctx context.Context, userID ulid.ULID) ([]*access.Group, error)
}

// RoleRepository manages role persistence.
type RoleRepository interface {
	// Get retrieves a role by ID.
	Get(ctx context.Context, id ulid.ULID) (*access.Role, error)

	// Create persists a new role.
	Create(ctx context.Context, role *access.Role) error

	// Update modifies an existing role.
	Update(ctx context.Context, role *access.Role) error

	// Delete removes a role and, in the same transaction, clears it from
	// every member holding it and from every channel allow-list naming it.
	// Callers must reject deletion of default roles before calling this.
	Delete(ctx context.Context, id ulid.ULID) error

	// ListByGroup returns all roles of a group ordered by descending position.
	ListByGroup(ctx context.Context, groupID ulid.ULID) ([]access.Role, error)
}

// ChannelRepository manages channel persistence.
type ChannelRepository interface {
	// Get retrieves a channel by ID.
	Get(ctx context.Context, id ulid.ULID) (*access.Channel, error)

	// Create persists a new channel.
	Create(ctx context.Context, channel *access.Channel) error

	// Update modifies an existing channel, including its role allow-list.
	Update(ctx context.Context, channel *access.Channel) error

	// Delete removes a channel and its messages.
	Delete(ctx context.Context, id ulid.ULID) error

	// ListByGroup returns all channels of a group in creation order.
	ListByGroup(ctx context.Context, groupID ulid.ULID) ([]*access.Channel, error)
}

// MemberRepository manages group membership persistence.
type MemberRepository interface {
	// Get retrieves a member by ID.
	Get(ctx context.Context, id ulid.ULID) (*access.Member, error)

	// GetByUser retrieves a user's membership in a group.
	GetByUser(ctx context.Context, groupID, userID ulid.ULID) (*access.Member, error)

	// Create persists a new member with their initial role set.
	Create(ctx context.Context, member *access.Member) error

	// SetRoles replaces a member's role set.
	SetRoles(ctx context.Context, memberID ulid.ULID, roleIDs []ulid.ULID) error

	// Delete removes a member from their group.
	Delete(ctx context.Context, id ulid.ULID) error

	// ListByGroup returns all members of a group with pagination.
	ListByGroup(ctx context.Context, groupID ulid.ULID, opts ListOptions) ([]*access.Member, error)
}

// MessageRepository manages messages, reactions, and attachment metadata.
type MessageRepository interface {
	// Get retrieves a message by ID.
	Get(ctx context.Context, id ulid.ULID) (*Message, error)

	// Create persists a new message.
	Create(ctx context.Context, msg *Message) error

	// Update modifies a message's content and edit timestamp.
	Update(ctx context.Context, msg *Message) error

	// Delete removes a message with its reactions and attachment metadata.
	Delete(ctx context.Context, id ulid.ULID) error

	// ListByChannel returns channel messages, newest last, with pagination.
	ListByChannel(ctx context.Context, channelID ulid.ULID, opts ListOptions) ([]*Message, error)

	// ListByConversation returns conversation messages, newest last.
	ListByConversation(ctx context.Context, conversationID ulid.ULID, opts ListOptions) ([]*Message, error)

	// AddReaction records an emoji reaction. Adding the same reaction twice
	// is a no-op.
	AddReaction(ctx context.Context, reaction *Reaction) error

	// RemoveReaction deletes a user's reaction.
	RemoveReaction(ctx context.Context, messageID, userID ulid.ULID, emoji string) error

	// ListReactions returns all reactions on a message.
	ListReactions(ctx context.Context, messageID ulid.ULID) ([]Reaction, error)

	// CreateAttachment records attachment metadata for a message.
	CreateAttachment(ctx context.Context, att *Attachment) error

	// ListAttachments returns attachment metadata for a message.
	ListAttachments(ctx context.Context, messageID ulid.ULID) ([]Attachment, error)
}

// ConversationRepository manages direct conversations.
type ConversationRepository interface {
	// Get retrieves a conversation with its participants.
	Get(ctx context.Context, id ulid.ULID) (*Conversation, error)

	// Create persists a new conversation and its participant set.
	Create(ctx context.Context, conv *Conversation) error

	// ListForUser returns the conversations a user takes part in.
	ListForUser(ctx context.Context, userID ulid.ULID) ([]*Conversation, error)
}
