// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/syncora/syncora/internal/chat"
)

// MessageRepository implements chat.MessageRepository using PostgreSQL.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new PostgreSQL message repository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Get retrieves a message by ID.
func (r *MessageRepository) Get(ctx context.Context, id ulid.ULID) (*chat.Message, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, channel_id, conversation_id, author_id, content, created_at, edited_at
		FROM messages WHERE id = $1
	`, id.String())
	msg, err := scanMessageRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MESSAGE_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MESSAGE_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return msg, nil
}

// Create persists a new message.
// Callers must validate the message before calling this method.
func (r *MessageRepository) Create(ctx context.Context, msg *chat.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, channel_id, conversation_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID.String(), ulidToStringPtr(msg.ChannelID), ulidToStringPtr(msg.ConversationID),
		msg.AuthorID.String(), msg.Content, msg.CreatedAt)
	if err != nil {
		return oops.Code("MESSAGE_CREATE_FAILED").With("id", msg.ID.String()).Wrap(err)
	}
	return nil
}

// Update modifies a message's content and edit timestamp.
func (r *MessageRepository) Update(ctx context.Context, msg *chat.Message) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE messages SET content = $2, edited_at = $3 WHERE id = $1
	`, msg.ID.String(), msg.Content, msg.EditedAt)
	if err != nil {
		return oops.Code("MESSAGE_UPDATE_FAILED").With("id", msg.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MESSAGE_NOT_FOUND").With("id", msg.ID.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// Delete removes a message. Reactions and attachment metadata cascade.
func (r *MessageRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("MESSAGE_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MESSAGE_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// ListByChannel returns channel messages in id order (newest last) with
// pagination. ULIDs sort by creation time.
func (r *MessageRepository) ListByChannel(ctx context.Context, channelID ulid.ULID, opts chat.ListOptions) ([]*chat.Message, error) {
	return r.list(ctx, `
		SELECT id, channel_id, conversation_id, author_id, content, created_at, edited_at
		FROM messages WHERE channel_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, channelID, opts)
}

// ListByConversation returns conversation messages in id order (newest last)
// with pagination.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID ulid.ULID, opts chat.ListOptions) ([]*chat.Message, error) {
	return r.list(ctx, `
		SELECT id, channel_id, conversation_id, author_id, content, created_at, edited_at
		FROM messages WHERE conversation_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, conversationID, opts)
}

func (r *MessageRepository) list(ctx context.Context, sql string, parentID ulid.ULID, opts chat.ListOptions) ([]*chat.Message, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = chat.DefaultLimit
	}
	rows, err := r.pool.Query(ctx, sql, parentID.String(), limit, opts.Offset)
	if err != nil {
		return nil, oops.Code("MESSAGE_QUERY_FAILED").With("parent_id", parentID.String()).Wrap(err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// AddReaction records an emoji reaction. Adding the same reaction twice is a
// no-op.
func (r *MessageRepository) AddReaction(ctx context.Context, reaction *chat.Reaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reactions (message_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
	`, reaction.MessageID.String(), reaction.UserID.String(), reaction.Emoji, reaction.CreatedAt)
	if err != nil {
		return oops.Code("REACTION_CREATE_FAILED").
			With("message_id", reaction.MessageID.String()).
			Wrap(err)
	}
	return nil
}

// RemoveReaction deletes a user's reaction.
func (r *MessageRepository) RemoveReaction(ctx context.Context, messageID, userID ulid.ULID, emoji string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3
	`, messageID.String(), userID.String(), emoji)
	if err != nil {
		return oops.Code("REACTION_DELETE_FAILED").
			With("message_id", messageID.String()).
			Wrap(err)
	}
	return nil
}

// ListReactions returns all reactions on a message, oldest first.
func (r *MessageRepository) ListReactions(ctx context.Context, messageID ulid.ULID) ([]chat.Reaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_id, user_id, emoji, created_at
		FROM reactions WHERE message_id = $1
		ORDER BY created_at
	`, messageID.String())
	if err != nil {
		return nil, oops.Code("REACTION_QUERY_FAILED").With("message_id", messageID.String()).Wrap(err)
	}
	defer rows.Close()

	reactions := make([]chat.Reaction, 0)
	for rows.Next() {
		var reaction chat.Reaction
		var messageIDStr, userIDStr string
		if err := rows.Scan(&messageIDStr, &userIDStr, &reaction.Emoji, &reaction.CreatedAt); err != nil {
			return nil, oops.Code("REACTION_SCAN_FAILED").Wrap(err)
		}
		reaction.MessageID, err = ulid.Parse(messageIDStr)
		if err != nil {
			return nil, oops.Code("REACTION_PARSE_FAILED").With("field", "message_id").With("value", messageIDStr).Wrap(err)
		}
		reaction.UserID, err = ulid.Parse(userIDStr)
		if err != nil {
			return nil, oops.Code("REACTION_PARSE_FAILED").With("field", "user_id").With("value", userIDStr).Wrap(err)
		}
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("REACTION_ITERATE_FAILED").Wrap(err)
	}
	return reactions, nil
}

// CreateAttachment records attachment metadata for a message.
func (r *MessageRepository) CreateAttachment(ctx context.Context, att *chat.Attachment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attachments (id, message_id, file_name, content_type, size_bytes, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, att.ID.String(), att.MessageID.String(), att.FileName, att.ContentType,
		att.SizeBytes, att.StorageKey, att.CreatedAt)
	if err != nil {
		return oops.Code("ATTACHMENT_CREATE_FAILED").With("id", att.ID.String()).Wrap(err)
	}
	return nil
}

// ListAttachments returns attachment metadata for a message, oldest first.
func (r *MessageRepository) ListAttachments(ctx context.Context, messageID ulid.ULID) ([]chat.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, file_name, content_type, size_bytes, storage_key, created_at
		FROM attachments WHERE message_id = $1
		ORDER BY id
	`, messageID.String())
	if err != nil {
		return nil, oops.Code("ATTACHMENT_QUERY_FAILED").With("message_id", messageID.String()).Wrap(err)
	}
	defer rows.Close()

	attachments := make([]chat.Attachment, 0)
	for rows.Next() {
		var att chat.Attachment
		var idStr, messageIDStr string
		if err := rows.Scan(&idStr, &messageIDStr, &att.FileName, &att.ContentType,
			&att.SizeBytes, &att.StorageKey, &att.CreatedAt); err != nil {
			return nil, oops.Code("ATTACHMENT_SCAN_FAILED").Wrap(err)
		}
		att.ID, err = ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("ATTACHMENT_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
		}
		att.MessageID, err = ulid.Parse(messageIDStr)
		if err != nil {
			return nil, oops.Code("ATTACHMENT_PARSE_FAILED").With("field", "message_id").With("value", messageIDStr).Wrap(err)
		}
		attachments = append(attachments, att)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ATTACHMENT_ITERATE_FAILED").Wrap(err)
	}
	return attachments, nil
}

// messageScanFields holds intermediate scan values for message parsing.
type messageScanFields struct {
	idStr             string
	channelIDStr      *string
	conversationIDStr *string
	authorIDStr       string
}

func scanMessageRow(row pgx.Row) (*chat.Message, error) {
	var msg chat.Message
	var f messageScanFields

	err := row.Scan(
		&f.idStr, &f.channelIDStr, &f.conversationIDStr, &f.authorIDStr,
		&msg.Content, &msg.CreatedAt, &msg.EditedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := parseMessageFromFields(&f, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func parseMessageFromFields(f *messageScanFields, msg *chat.Message) error {
	var err error
	msg.ID, err = ulid.Parse(f.idStr)
	if err != nil {
		return oops.Code("MESSAGE_PARSE_FAILED").With("field", "id").With("value", f.idStr).Wrap(err)
	}
	msg.AuthorID, err = ulid.Parse(f.authorIDStr)
	if err != nil {
		return oops.Code("MESSAGE_PARSE_FAILED").With("field", "author_id").With("value", f.authorIDStr).Wrap(err)
	}
	msg.ChannelID, err = parseOptionalULID(f.channelIDStr, "channel_id")
	if err != nil {
		return err
	}
	msg.ConversationID, err = parseOptionalULID(f.conversationIDStr, "conversation_id")
	if err != nil {
		return err
	}
	return nil
}

func scanMessages(rows pgx.Rows) ([]*chat.Message, error) {
	messages := make([]*chat.Message, 0)
	for rows.Next() {
		var msg chat.Message
		var f messageScanFields
		if err := rows.Scan(
			&f.idStr, &f.channelIDStr, &f.conversationIDStr, &f.authorIDStr,
			&msg.Content, &msg.CreatedAt, &msg.EditedAt,
		); err != nil {
			return nil, oops.Code("MESSAGE_SCAN_FAILED").Wrap(err)
		}
		if err := parseMessageFromFields(&f, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MESSAGE_ITERATE_FAILED").Wrap(err)
	}
	return messages, nil
}

// Compile-time interface check.
var _ chat.MessageRepository = (*MessageRepository)(nil)
