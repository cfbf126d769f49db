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

// ConversationRepository implements chat.ConversationRepository using
// PostgreSQL. Participants live in conversation_participants.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new PostgreSQL conversation repository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// Get retrieves a conversation with its participants.
func (r *ConversationRepository) Get(ctx context.Context, id ulid.ULID) (*chat.Conversation, error) {
	var conv chat.Conversation
	var idStr string
	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at FROM conversations WHERE id = $1
	`, id.String()).Scan(&idStr, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CONVERSATION_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CONVERSATION_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	conv.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("CONVERSATION_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}

	conv.ParticipantIDs, err = r.participants(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Create persists a new conversation and its participant set in one
// transaction.
func (r *ConversationRepository) Create(ctx context.Context, conv *chat.Conversation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (id, created_at) VALUES ($1, $2)
	`, conv.ID.String(), conv.CreatedAt)
	if err != nil {
		return oops.Code("CONVERSATION_CREATE_FAILED").With("id", conv.ID.String()).Wrap(err)
	}
	for _, userID := range conv.ParticipantIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)
		`, conv.ID.String(), userID.String())
		if err != nil {
			return oops.Code("CONVERSATION_PARTICIPANT_FAILED").
				With("conversation_id", conv.ID.String()).
				With("user_id", userID.String()).
				Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// ListForUser returns the conversations a user takes part in, newest first.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID ulid.ULID) ([]*chat.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.created_at
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.id DESC
	`, userID.String())
	if err != nil {
		return nil, oops.Code("CONVERSATION_QUERY_FAILED").With("user_id", userID.String()).Wrap(err)
	}

	conversations, err := scanConversations(rows)
	if err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		conv.ParticipantIDs, err = r.participants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
	}
	return conversations, nil
}

func scanConversations(rows pgx.Rows) ([]*chat.Conversation, error) {
	defer rows.Close()
	conversations := make([]*chat.Conversation, 0)
	for rows.Next() {
		var conv chat.Conversation
		var idStr string
		if err := rows.Scan(&idStr, &conv.CreatedAt); err != nil {
			return nil, oops.Code("CONVERSATION_SCAN_FAILED").Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("CONVERSATION_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
		}
		conv.ID = id
		conversations = append(conversations, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONVERSATION_ITERATE_FAILED").Wrap(err)
	}
	return conversations, nil
}

func (r *ConversationRepository) participants(ctx context.Context, conversationID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY user_id
	`, conversationID.String())
	if err != nil {
		return nil, oops.Code("CONVERSATION_PARTICIPANTS_QUERY_FAILED").
			With("conversation_id", conversationID.String()).
			Wrap(err)
	}
	return scanIDColumn(rows, "user_id")
}

// Compile-time interface check.
var _ chat.ConversationRepository = (*ConversationRepository)(nil)
