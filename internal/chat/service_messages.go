// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/feed"
	"github.com/syncora/syncora/internal/observability"
)

// jsonPayload marshals an event payload, returning nil on failure so a bad
// payload never blocks the event itself.
func jsonPayload(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// BlobStore persists attachment bytes under opaque keys. storage.Filesystem
// satisfies it.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// CreateChannel adds a channel to a group. Requires MANAGE_CHANNELS unless
// the caller owns the group. A nil or empty allow-list makes the channel
// open to all members.
func (s *Service) CreateChannel(ctx context.Context, callerID, groupID ulid.ULID, name, topic string, chanType access.ChannelType, allowedRoleIDs []ulid.ULID) (*access.Channel, error) {
	snap, err := s.snapshot(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, access.PermManageChannels); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateTopic(topic); err != nil {
		return nil, err
	}
	if !chanType.Valid() {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown channel type %q", chanType)}
	}
	if err := s.checkAllowList(ctx, groupID, allowedRoleIDs); err != nil {
		return nil, err
	}

	channel := &access.Channel{
		ID:             ulid.Make(),
		GroupID:        groupID,
		Name:           name,
		Topic:          topic,
		Type:           chanType,
		AllowedRoleIDs: allowedRoleIDs,
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, oops.Wrapf(err, "create channel in group %s", groupID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(groupID),
		Type:    feed.EventChannelCreated,
		ActorID: callerID.String(),
	})
	return channel, nil
}

// UpdateChannel edits a channel's name, topic, and allow-list. Requires
// MANAGE_CHANNELS or ownership.
func (s *Service) UpdateChannel(ctx context.Context, callerID ulid.ULID, channel *access.Channel) error {
	snap, err := s.snapshot(ctx, channel.GroupID, callerID)
	if err != nil {
		return err
	}
	if !access.CanManage(snap.member, snap.roles, snap.group) {
		return oops.In("chat").Code("PERMISSION_DENIED").
			With("permission", access.PermManageChannels.String()).
			Wrap(access.ErrPermissionDenied)
	}
	if err := ValidateName(channel.Name); err != nil {
		return err
	}
	if err := ValidateTopic(channel.Topic); err != nil {
		return err
	}
	if err := s.checkAllowList(ctx, channel.GroupID, channel.AllowedRoleIDs); err != nil {
		return err
	}
	if err := s.channels.Update(ctx, channel); err != nil {
		return oops.Wrapf(err, "update channel %s", channel.ID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.ChannelStream(channel.ID),
		Type:    feed.EventChannelUpdated,
		ActorID: callerID.String(),
	})
	return nil
}

// DeleteChannel removes a channel and its messages. Requires MANAGE_CHANNELS
// or ownership.
func (s *Service) DeleteChannel(ctx context.Context, callerID, channelID ulid.ULID) error {
	channel, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return oops.Wrapf(err, "get channel %s", channelID)
	}
	snap, err := s.snapshot(ctx, channel.GroupID, callerID)
	if err != nil {
		return err
	}
	if !access.CanManage(snap.member, snap.roles, snap.group) {
		return oops.In("chat").Code("PERMISSION_DENIED").
			With("permission", access.PermManageChannels.String()).
			Wrap(access.ErrPermissionDenied)
	}
	if err := s.channels.Delete(ctx, channelID); err != nil {
		return oops.Wrapf(err, "delete channel %s", channelID)
	}
	s.publish(ctx, feed.Event{
		Stream:  feed.GroupStream(channel.GroupID),
		Type:    feed.EventChannelDeleted,
		ActorID: callerID.String(),
	})
	return nil
}

// checkAllowList rejects allow-list entries naming roles outside the group.
func (s *Service) checkAllowList(ctx context.Context, groupID ulid.ULID, allowedRoleIDs []ulid.ULID) error {
	if len(allowedRoleIDs) == 0 {
		return nil
	}
	groupRoles, err := s.roles.ListByGroup(ctx, groupID)
	if err != nil {
		return oops.Wrapf(err, "list roles of %s", groupID)
	}
	known := make(map[ulid.ULID]bool, len(groupRoles))
	for _, r := range groupRoles {
		known[r.ID] = true
	}
	for _, id := range allowedRoleIDs {
		if !known[id] {
			return oops.In("chat").Code("CROSS_GROUP_ROLE").
				With("role_id", id.String()).
				Wrap(access.ErrConstraintViolation)
		}
	}
	return nil
}

// ListVisibleChannels returns the group's channels the user may view, in the
// group's channel order.
func (s *Service) ListVisibleChannels(ctx context.Context, groupID, userID ulid.ULID) ([]*access.Channel, error) {
	snap, err := s.snapshot(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	channels, err := s.channels.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, oops.Wrapf(err, "list channels of %s", groupID)
	}
	return s.authorizer.FilterVisibleChannels(channels, snap.group, snap.member), nil
}

// GetChannel returns a channel if the user may view it. A channel the user
// cannot see is reported as not found, same as one that does not exist.
func (s *Service) GetChannel(ctx context.Context, userID, channelID ulid.ULID) (*access.Channel, error) {
	channel, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return nil, oops.Wrapf(err, "get channel %s", channelID)
	}
	snap, err := s.snapshot(ctx, channel.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.RequireChannelAccess(snap.group, snap.member, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// channelSnapshot resolves a channel plus the caller's authorization inputs
// and checks view access in one step.
func (s *Service) channelSnapshot(ctx context.Context, userID, channelID ulid.ULID) (*snapshot, *access.Channel, error) {
	channel, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return nil, nil, oops.Wrapf(err, "get channel %s", channelID)
	}
	snap, err := s.snapshot(ctx, channel.GroupID, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizer.RequireChannelAccess(snap.group, snap.member, channel); err != nil {
		return nil, nil, err
	}
	return snap, channel, nil
}

// requireInChannel checks that the caller can view the channel and holds the
// given permission there.
func (s *Service) requireInChannel(ctx context.Context, userID, channelID ulid.ULID, p access.Permission) (*snapshot, *access.Channel, error) {
	snap, channel, err := s.channelSnapshot(ctx, userID, channelID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizer.RequirePermission(snap.group, snap.member, snap.roles, p); err != nil {
		return nil, nil, err
	}
	return snap, channel, nil
}

// SendMessage posts a message to a channel. The author must be able to view
// the channel and hold SEND_MESSAGES.
func (s *Service) SendMessage(ctx context.Context, authorID, channelID ulid.ULID, content string) (*Message, error) {
	_, _, err := s.requireInChannel(ctx, authorID, channelID, access.PermSendMessages)
	if err != nil {
		return nil, err
	}
	msg, err := NewChannelMessage(channelID, authorID, content)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, oops.Wrapf(err, "create message in channel %s", channelID)
	}
	observability.RecordMessage("channel")
	s.publish(ctx, feed.Event{
		Stream:  feed.ChannelStream(channelID),
		Type:    feed.EventMessageCreated,
		ActorID: authorID.String(),
		Payload: jsonPayload(map[string]string{"message_id": msg.ID.String()}),
	})
	return msg, nil
}

// EditMessage rewrites a message's content. Only the author may edit, and
// they must still be able to view the channel.
func (s *Service) EditMessage(ctx context.Context, callerID, messageID ulid.ULID, content string) (*Message, error) {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, oops.Wrapf(err, "get message %s", messageID)
	}
	if msg.AuthorID != callerID {
		return nil, oops.In("chat").Code("NOT_MESSAGE_AUTHOR").
			With("message_id", messageID.String()).
			Wrap(access.ErrPermissionDenied)
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	if msg.ChannelID != nil {
		if _, _, err := s.channelSnapshot(ctx, callerID, *msg.ChannelID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	msg.Content = content
	msg.EditedAt = &now
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, oops.Wrapf(err, "update message %s", messageID)
	}
	if msg.ChannelID != nil {
		s.publish(ctx, feed.Event{
			Stream:  feed.ChannelStream(*msg.ChannelID),
			Type:    feed.EventMessageUpdated,
			ActorID: callerID.String(),
			Payload: jsonPayload(map[string]string{"message_id": msg.ID.String()}),
		})
	}
	return msg, nil
}

// DeleteMessage removes a message. The author may always delete their own;
// anyone else needs MANAGE_MESSAGES in the channel.
func (s *Service) DeleteMessage(ctx context.Context, callerID, messageID ulid.ULID) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return oops.Wrapf(err, "get message %s", messageID)
	}
	if msg.ChannelID != nil {
		if msg.AuthorID == callerID {
			if _, _, err := s.channelSnapshot(ctx, callerID, *msg.ChannelID); err != nil {
				return err
			}
		} else {
			if _, _, err := s.requireInChannel(ctx, callerID, *msg.ChannelID, access.PermManageMessages); err != nil {
				return err
			}
		}
	} else if msg.AuthorID != callerID {
		return oops.In("chat").Code("NOT_MESSAGE_AUTHOR").
			With("message_id", messageID.String()).
			Wrap(access.ErrPermissionDenied)
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return oops.Wrapf(err, "delete message %s", messageID)
	}
	if msg.ChannelID != nil {
		s.publish(ctx, feed.Event{
			Stream:  feed.ChannelStream(*msg.ChannelID),
			Type:    feed.EventMessageDeleted,
			ActorID: callerID.String(),
			Payload: jsonPayload(map[string]string{"message_id": msg.ID.String()}),
		})
	}
	return nil
}

// ListMessages returns a channel's messages if the caller may view it.
func (s *Service) ListMessages(ctx context.Context, userID, channelID ulid.ULID, opts ListOptions) ([]*Message, error) {
	if _, _, err := s.channelSnapshot(ctx, userID, channelID); err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	msgs, err := s.messages.ListByChannel(ctx, channelID, opts)
	if err != nil {
		return nil, oops.Wrapf(err, "list messages of channel %s", channelID)
	}
	return msgs, nil
}

// AddReaction records an emoji reaction on a channel message. Requires view
// access and ADD_REACTIONS.
func (s *Service) AddReaction(ctx context.Context, callerID, messageID ulid.ULID, emoji string) error {
	if err := ValidateEmoji(emoji); err != nil {
		return err
	}
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return oops.Wrapf(err, "get message %s", messageID)
	}
	if msg.ChannelID != nil {
		if _, _, err := s.requireInChannel(ctx, callerID, *msg.ChannelID, access.PermAddReactions); err != nil {
			return err
		}
	} else if msg.ConversationID != nil {
		if _, err := s.conversationFor(ctx, callerID, *msg.ConversationID); err != nil {
			return err
		}
	}

	reaction := &Reaction{
		MessageID: messageID,
		UserID:    callerID,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	}
	if err := s.messages.AddReaction(ctx, reaction); err != nil {
		return oops.Wrapf(err, "add reaction to message %s", messageID)
	}
	if msg.ChannelID != nil {
		s.publish(ctx, feed.Event{
			Stream:  feed.ChannelStream(*msg.ChannelID),
			Type:    feed.EventReactionAdded,
			ActorID: callerID.String(),
			Payload: jsonPayload(map[string]string{"message_id": messageID.String(), "emoji": emoji}),
		})
	}
	return nil
}

// RemoveReaction deletes the caller's own reaction.
func (s *Service) RemoveReaction(ctx context.Context, callerID, messageID ulid.ULID, emoji string) error {
	if err := s.messages.RemoveReaction(ctx, messageID, callerID, emoji); err != nil {
		return oops.Wrapf(err, "remove reaction from message %s", messageID)
	}
	return nil
}

// AttachFile stores an upload in the blob store and records its metadata on
// a message. Requires view access and ATTACH_FILES on channel messages.
func (s *Service) AttachFile(ctx context.Context, callerID, messageID ulid.ULID, fileName, contentType string, size int64, r io.Reader) (*Attachment, error) {
	if s.blobs == nil {
		return nil, oops.In("chat").Code("BLOB_STORE_UNAVAILABLE").Errorf("no blob store configured")
	}
	if err := ValidateFileName(fileName); err != nil {
		return nil, err
	}
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, oops.Wrapf(err, "get message %s", messageID)
	}
	if msg.AuthorID != callerID {
		return nil, oops.In("chat").Code("NOT_MESSAGE_AUTHOR").
			With("message_id", messageID.String()).
			Wrap(access.ErrPermissionDenied)
	}
	if msg.ChannelID != nil {
		if _, _, err := s.requireInChannel(ctx, callerID, *msg.ChannelID, access.PermAttachFiles); err != nil {
			return nil, err
		}
	}

	att := &Attachment{
		ID:          ulid.Make(),
		MessageID:   messageID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		CreatedAt:   time.Now(),
	}
	att.StorageKey = fmt.Sprintf("attachments/%s/%s", messageID, att.ID)

	if err := s.blobs.Put(ctx, att.StorageKey, r, size); err != nil {
		return nil, oops.Wrapf(err, "store attachment %s", att.ID)
	}
	if err := s.messages.CreateAttachment(ctx, att); err != nil {
		// Metadata write failed; drop the orphaned blob.
		if derr := s.blobs.Delete(ctx, att.StorageKey); derr != nil {
			s.logger.Warn("failed to clean up orphaned attachment blob",
				"storage_key", att.StorageKey,
				"error", derr)
		}
		return nil, oops.Wrapf(err, "record attachment %s", att.ID)
	}
	return att, nil
}

// TransformMessage runs an AI transform over content on behalf of a channel
// member. Requires view access and USE_AI_FEATURES. The result is returned
// to the caller, not posted.
func (s *Service) TransformMessage(ctx context.Context, callerID, channelID ulid.ULID, task, content string) (string, error) {
	if s.transformer == nil {
		return "", oops.In("chat").Code("AI_UNAVAILABLE").Errorf("no transformer configured")
	}
	if _, _, err := s.requireInChannel(ctx, callerID, channelID, access.PermUseAIFeatures); err != nil {
		return "", err
	}
	if err := ValidateContent(content); err != nil {
		return "", err
	}
	result, err := s.transformer.Transform(ctx, task, content)
	if err != nil {
		return "", oops.Wrapf(err, "transform content in channel %s", channelID)
	}
	return result, nil
}

// SummarizeConversation runs an AI action over the recent messages of a
// direct conversation the caller takes part in. Group permissions do not
// apply to conversations; participation is the only gate.
func (s *Service) SummarizeConversation(ctx context.Context, callerID, conversationID ulid.ULID, action string) (string, error) {
	if s.transformer == nil {
		return "", oops.In("chat").Code("AI_UNAVAILABLE").Errorf("no transformer configured")
	}
	conv, err := s.conversationFor(ctx, callerID, conversationID)
	if err != nil {
		return "", err
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ID, ListOptions{Limit: DefaultLimit})
	if err != nil {
		return "", oops.Wrapf(err, "list messages of conversation %s", conversationID)
	}
	if len(msgs) == 0 {
		return "", &ValidationError{Field: "conversation", Message: "conversation has no messages"}
	}
	contents := make([]string, len(msgs))
	for i, m := range msgs {
		contents[i] = m.Content
	}
	result, err := s.transformer.TransformConversation(ctx, action, conv.ID.String(), contents)
	if err != nil {
		return "", oops.Wrapf(err, "transform conversation %s", conversationID)
	}
	return result, nil
}

// conversationFor loads a conversation and checks the caller participates.
// Non-participants get not found, never a hint the conversation exists.
func (s *Service) conversationFor(ctx context.Context, userID, conversationID ulid.ULID) (*Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, oops.Wrapf(err, "get conversation %s", conversationID)
	}
	if !conv.HasParticipant(userID) {
		return nil, oops.In("chat").Code("CONVERSATION_NOT_FOUND").
			With("conversation_id", conversationID.String()).
			Wrap(access.ErrNotFound)
	}
	return conv, nil
}

// StartConversation opens a direct conversation between the caller and one
// or more other users.
func (s *Service) StartConversation(ctx context.Context, callerID ulid.ULID, participantIDs ...ulid.ULID) (*Conversation, error) {
	seen := map[ulid.ULID]bool{callerID: true}
	ids := []ulid.ULID{callerID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) < 2 {
		return nil, &ValidationError{Field: "participants", Message: "conversation needs at least two participants"}
	}

	conv := &Conversation{
		ID:             ulid.Make(),
		ParticipantIDs: ids,
		CreatedAt:      time.Now(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, oops.Wrapf(err, "create conversation")
	}
	return conv, nil
}

// SendDirectMessage posts a message to a conversation the caller takes part
// in. No role permissions apply outside groups.
func (s *Service) SendDirectMessage(ctx context.Context, authorID, conversationID ulid.ULID, content string) (*Message, error) {
	conv, err := s.conversationFor(ctx, authorID, conversationID)
	if err != nil {
		return nil, err
	}
	msg, err := NewDirectMessage(conv.ID, authorID, content)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, oops.Wrapf(err, "create message in conversation %s", conversationID)
	}
	observability.RecordMessage("direct")
	s.publish(ctx, feed.Event{
		Stream:  feed.ConversationStream(conversationID),
		Type:    feed.EventMessageCreated,
		ActorID: authorID.String(),
		Payload: jsonPayload(map[string]string{"message_id": msg.ID.String()}),
	})
	return msg, nil
}

// ListDirectMessages returns a conversation's messages for a participant.
func (s *Service) ListDirectMessages(ctx context.Context, userID, conversationID ulid.ULID, opts ListOptions) ([]*Message, error) {
	if _, err := s.conversationFor(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID, opts)
	if err != nil {
		return nil, oops.Wrapf(err, "list messages of conversation %s", conversationID)
	}
	return msgs, nil
}

// ListConversations returns the conversations the user takes part in.
func (s *Service) ListConversations(ctx context.Context, userID ulid.ULID) ([]*Conversation, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, oops.Wrapf(err, "list conversations of user %s", userID)
	}
	return convs, nil
}
