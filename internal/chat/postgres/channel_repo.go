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

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/chat"
)

// ChannelRepository implements chat.ChannelRepository using PostgreSQL.
// A channel's allow-list lives in channel_roles; no rows means the channel
// is open to every group member.
type ChannelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new PostgreSQL channel repository.
func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{pool: pool}
}

// Get retrieves a channel and its allow-list by ID.
func (r *ChannelRepository) Get(ctx context.Context, id ulid.ULID) (*access.Channel, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, group_id, name, topic, type, created_at
		FROM channels WHERE id = $1
	`, id.String())
	channel, err := scanChannelRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CHANNEL_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CHANNEL_GET_FAILED").With("id", id.String()).Wrap(err)
	}

	channel.AllowedRoleIDs, err = r.allowList(ctx, r.pool, id)
	if err != nil {
		return nil, err
	}
	return channel, nil
}

// Create persists a new channel and its allow-list in one transaction.
func (r *ChannelRepository) Create(ctx context.Context, channel *access.Channel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO channels (id, group_id, name, topic, type, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, channel.ID.String(), channel.GroupID.String(), channel.Name, channel.Topic, string(channel.Type))
	if err != nil {
		return oops.Code("CHANNEL_CREATE_FAILED").With("id", channel.ID.String()).Wrap(err)
	}

	if err := insertAllowList(ctx, tx, channel.ID, channel.AllowedRoleIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Update modifies a channel and replaces its allow-list in one transaction.
func (r *ChannelRepository) Update(ctx context.Context, channel *access.Channel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.Exec(ctx, `
		UPDATE channels SET name = $2, topic = $3 WHERE id = $1
	`, channel.ID.String(), channel.Name, channel.Topic)
	if err != nil {
		return oops.Code("CHANNEL_UPDATE_FAILED").With("id", channel.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CHANNEL_NOT_FOUND").With("id", channel.ID.String()).Wrap(chat.ErrNotFound)
	}

	_, err = tx.Exec(ctx, `DELETE FROM channel_roles WHERE channel_id = $1`, channel.ID.String())
	if err != nil {
		return oops.Code("CHANNEL_UPDATE_FAILED").With("id", channel.ID.String()).Wrap(err)
	}
	if err := insertAllowList(ctx, tx, channel.ID, channel.AllowedRoleIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Delete removes a channel. Messages and allow-list rows cascade.
func (r *ChannelRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("CHANNEL_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("CHANNEL_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// ListByGroup returns all channels of a group in creation order, allow-lists
// included.
func (r *ChannelRepository) ListByGroup(ctx context.Context, groupID ulid.ULID) ([]*access.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, name, topic, type, created_at
		FROM channels WHERE group_id = $1
		ORDER BY created_at, id
	`, groupID.String())
	if err != nil {
		return nil, oops.Code("CHANNEL_QUERY_FAILED").With("group_id", groupID.String()).Wrap(err)
	}

	channels, err := scanChannels(rows)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		ch.AllowedRoleIDs, err = r.allowList(ctx, r.pool, ch.ID)
		if err != nil {
			return nil, err
		}
	}
	return channels, nil
}

func (r *ChannelRepository) allowList(ctx context.Context, q querier, channelID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := q.Query(ctx, `
		SELECT role_id FROM channel_roles WHERE channel_id = $1 ORDER BY role_id
	`, channelID.String())
	if err != nil {
		return nil, oops.Code("CHANNEL_ROLES_QUERY_FAILED").With("channel_id", channelID.String()).Wrap(err)
	}
	return scanIDColumn(rows, "role_id")
}

func insertAllowList(ctx context.Context, q querier, channelID ulid.ULID, roleIDs []ulid.ULID) error {
	for _, roleID := range roleIDs {
		_, err := q.Exec(ctx, `
			INSERT INTO channel_roles (channel_id, role_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, channelID.String(), roleID.String())
		if err != nil {
			return oops.Code("CHANNEL_ROLES_INSERT_FAILED").
				With("channel_id", channelID.String()).
				With("role_id", roleID.String()).
				Wrap(err)
		}
	}
	return nil
}

func scanChannelRow(row pgx.Row) (*access.Channel, error) {
	var channel access.Channel
	var idStr, groupIDStr, typeStr string

	err := row.Scan(&idStr, &groupIDStr, &channel.Name, &channel.Topic, &typeStr, &channel.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := parseChannelFields(idStr, groupIDStr, typeStr, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

func parseChannelFields(idStr, groupIDStr, typeStr string, channel *access.Channel) error {
	var err error
	channel.ID, err = ulid.Parse(idStr)
	if err != nil {
		return oops.Code("CHANNEL_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	channel.GroupID, err = ulid.Parse(groupIDStr)
	if err != nil {
		return oops.Code("CHANNEL_PARSE_FAILED").With("field", "group_id").With("value", groupIDStr).Wrap(err)
	}
	channel.Type = access.ChannelType(typeStr)
	if !channel.Type.Valid() {
		return oops.Code("CHANNEL_PARSE_FAILED").With("field", "type").With("value", typeStr).
			Errorf("unknown channel type")
	}
	return nil
}

func scanChannels(rows pgx.Rows) ([]*access.Channel, error) {
	defer rows.Close()
	channels := make([]*access.Channel, 0)
	for rows.Next() {
		var channel access.Channel
		var idStr, groupIDStr, typeStr string
		if err := rows.Scan(&idStr, &groupIDStr, &channel.Name, &channel.Topic, &typeStr, &channel.CreatedAt); err != nil {
			return nil, oops.Code("CHANNEL_SCAN_FAILED").Wrap(err)
		}
		if err := parseChannelFields(idStr, groupIDStr, typeStr, &channel); err != nil {
			return nil, err
		}
		channels = append(channels, &channel)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CHANNEL_ITERATE_FAILED").Wrap(err)
	}
	return channels, nil
}

// Compile-time interface check.
var _ chat.ChannelRepository = (*ChannelRepository)(nil)
