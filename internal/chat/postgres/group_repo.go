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

// GroupRepository implements chat.GroupRepository using PostgreSQL.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new PostgreSQL group repository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Get retrieves a group by ID.
func (r *GroupRepository) Get(ctx context.Context, id ulid.ULID) (*access.Group, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, created_at
		FROM groups WHERE id = $1
	`, id.String())
	group, err := scanGroupRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GROUP_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GROUP_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return group, nil
}

// Create persists a new group.
func (r *GroupRepository) Create(ctx context.Context, group *access.Group) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO groups (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, NOW())
	`, group.ID.String(), group.OwnerID.String(), group.Name)
	if err != nil {
		return oops.Code("GROUP_CREATE_FAILED").With("id", group.ID.String()).Wrap(err)
	}
	return nil
}

// Update modifies an existing group.
func (r *GroupRepository) Update(ctx context.Context, group *access.Group) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE groups SET owner_id = $2, name = $3 WHERE id = $1
	`, group.ID.String(), group.OwnerID.String(), group.Name)
	if err != nil {
		return oops.Code("GROUP_UPDATE_FAILED").With("id", group.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("GROUP_NOT_FOUND").With("id", group.ID.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// Delete removes a group. Roles, channels, members, and messages cascade
// through foreign keys.
func (r *GroupRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("GROUP_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("GROUP_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// ListForUser returns the groups a user is a member of, oldest first.
func (r *GroupRepository) ListForUser(ctx context.Context, userID ulid.ULID) ([]*access.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.owner_id, g.name, g.created_at
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at
	`, userID.String())
	if err != nil {
		return nil, oops.Code("GROUP_QUERY_FAILED").With("user_id", userID.String()).Wrap(err)
	}
	defer rows.Close()

	return scanGroups(rows)
}

func scanGroupRow(row pgx.Row) (*access.Group, error) {
	var group access.Group
	var idStr, ownerIDStr string

	err := row.Scan(&idStr, &ownerIDStr, &group.Name, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := parseGroupIDs(idStr, ownerIDStr, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func parseGroupIDs(idStr, ownerIDStr string, group *access.Group) error {
	var err error
	group.ID, err = ulid.Parse(idStr)
	if err != nil {
		return oops.Code("GROUP_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	group.OwnerID, err = ulid.Parse(ownerIDStr)
	if err != nil {
		return oops.Code("GROUP_PARSE_FAILED").With("field", "owner_id").With("value", ownerIDStr).Wrap(err)
	}
	return nil
}

func scanGroups(rows pgx.Rows) ([]*access.Group, error) {
	groups := make([]*access.Group, 0)
	for rows.Next() {
		var group access.Group
		var idStr, ownerIDStr string
		if err := rows.Scan(&idStr, &ownerIDStr, &group.Name, &group.CreatedAt); err != nil {
			return nil, oops.Code("GROUP_SCAN_FAILED").Wrap(err)
		}
		if err := parseGroupIDs(idStr, ownerIDStr, &group); err != nil {
			return nil, err
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("GROUP_ITERATE_FAILED").Wrap(err)
	}
	return groups, nil
}

// Compile-time interface check.
var _ chat.GroupRepository = (*GroupRepository)(nil)
