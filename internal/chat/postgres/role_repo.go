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

// RoleRepository implements chat.RoleRepository using PostgreSQL.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new PostgreSQL role repository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// Get retrieves a role by ID.
func (r *RoleRepository) Get(ctx context.Context, id ulid.ULID) (*access.Role, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, group_id, name, color, position, permissions, is_default, created_at
		FROM roles WHERE id = $1
	`, id.String())
	role, err := scanRoleRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ROLE_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return role, nil
}

// Create persists a new role.
// Callers must validate the role before calling this method.
func (r *RoleRepository) Create(ctx context.Context, role *access.Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (id, group_id, name, color, position, permissions, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, role.ID.String(), role.GroupID.String(), role.Name, role.Color,
		role.Position, int64(role.Permissions), role.IsDefault)
	if err != nil {
		return oops.Code("ROLE_CREATE_FAILED").With("id", role.ID.String()).Wrap(err)
	}
	return nil
}

// Update modifies an existing role.
// Callers must validate the role before calling this method.
func (r *RoleRepository) Update(ctx context.Context, role *access.Role) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE roles SET name = $2, color = $3, position = $4, permissions = $5
		WHERE id = $1
	`, role.ID.String(), role.Name, role.Color, role.Position, int64(role.Permissions))
	if err != nil {
		return oops.Code("ROLE_UPDATE_FAILED").With("id", role.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ROLE_NOT_FOUND").With("id", role.ID.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// Delete removes a role. Rows in member_roles and channel_roles referencing
// it cascade through foreign keys, so member role sets and channel
// allow-lists lose the role atomically with the delete.
func (r *RoleRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("ROLE_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ROLE_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// ListByGroup returns all roles of a group ordered by descending position.
func (r *RoleRepository) ListByGroup(ctx context.Context, groupID ulid.ULID) ([]access.Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, name, color, position, permissions, is_default, created_at
		FROM roles WHERE group_id = $1
		ORDER BY position DESC, id
	`, groupID.String())
	if err != nil {
		return nil, oops.Code("ROLE_QUERY_FAILED").With("group_id", groupID.String()).Wrap(err)
	}
	defer rows.Close()

	roles := make([]access.Role, 0)
	for rows.Next() {
		var role access.Role
		var idStr, groupIDStr string
		var perms int64
		if err := rows.Scan(&idStr, &groupIDStr, &role.Name, &role.Color,
			&role.Position, &perms, &role.IsDefault, &role.CreatedAt); err != nil {
			return nil, oops.Code("ROLE_SCAN_FAILED").Wrap(err)
		}
		if err := parseRoleIDs(idStr, groupIDStr, &role); err != nil {
			return nil, err
		}
		role.Permissions = access.PermissionSet(perms)
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ROLE_ITERATE_FAILED").Wrap(err)
	}
	return roles, nil
}

func scanRoleRow(row pgx.Row) (*access.Role, error) {
	var role access.Role
	var idStr, groupIDStr string
	var perms int64

	err := row.Scan(&idStr, &groupIDStr, &role.Name, &role.Color,
		&role.Position, &perms, &role.IsDefault, &role.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := parseRoleIDs(idStr, groupIDStr, &role); err != nil {
		return nil, err
	}
	role.Permissions = access.PermissionSet(perms)
	return &role, nil
}

func parseRoleIDs(idStr, groupIDStr string, role *access.Role) error {
	var err error
	role.ID, err = ulid.Parse(idStr)
	if err != nil {
		return oops.Code("ROLE_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	role.GroupID, err = ulid.Parse(groupIDStr)
	if err != nil {
		return oops.Code("ROLE_PARSE_FAILED").With("field", "group_id").With("value", groupIDStr).Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ chat.RoleRepository = (*RoleRepository)(nil)
