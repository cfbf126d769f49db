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

// MemberRepository implements chat.MemberRepository using PostgreSQL.
// A member's role set lives in member_roles.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a new PostgreSQL member repository.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Get retrieves a member and their role set by ID.
func (r *MemberRepository) Get(ctx context.Context, id ulid.ULID) (*access.Member, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, group_id, user_id, joined_at
		FROM group_members WHERE id = $1
	`, id.String())
	return r.scanWithRoles(ctx, row, "id", id.String())
}

// GetByUser retrieves a user's membership in a group.
func (r *MemberRepository) GetByUser(ctx context.Context, groupID, userID ulid.ULID) (*access.Member, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, group_id, user_id, joined_at
		FROM group_members WHERE group_id = $1 AND user_id = $2
	`, groupID.String(), userID.String())
	return r.scanWithRoles(ctx, row, "user_id", userID.String())
}

// Create persists a new member with their initial role set in one
// transaction.
func (r *MemberRepository) Create(ctx context.Context, member *access.Member) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO group_members (id, group_id, user_id, joined_at)
		VALUES ($1, $2, $3, NOW())
	`, member.ID.String(), member.GroupID.String(), member.UserID.String())
	if err != nil {
		return oops.Code("MEMBER_CREATE_FAILED").With("id", member.ID.String()).Wrap(err)
	}
	if err := insertMemberRoles(ctx, tx, member.ID, member.RoleIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// SetRoles replaces a member's role set in one transaction.
func (r *MemberRepository) SetRoles(ctx context.Context, memberID ulid.ULID, roleIDs []ulid.ULID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `DELETE FROM member_roles WHERE member_id = $1`, memberID.String())
	if err != nil {
		return oops.Code("MEMBER_ROLES_CLEAR_FAILED").With("member_id", memberID.String()).Wrap(err)
	}
	if err := insertMemberRoles(ctx, tx, memberID, roleIDs); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// Delete removes a member. Their role rows cascade.
func (r *MemberRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM group_members WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("MEMBER_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MEMBER_NOT_FOUND").With("id", id.String()).Wrap(chat.ErrNotFound)
	}
	return nil
}

// ListByGroup returns all members of a group with pagination, in join order.
func (r *MemberRepository) ListByGroup(ctx context.Context, groupID ulid.ULID, opts chat.ListOptions) ([]*access.Member, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = chat.DefaultLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, user_id, joined_at
		FROM group_members WHERE group_id = $1
		ORDER BY joined_at, id
		LIMIT $2 OFFSET $3
	`, groupID.String(), limit, opts.Offset)
	if err != nil {
		return nil, oops.Code("MEMBER_QUERY_FAILED").With("group_id", groupID.String()).Wrap(err)
	}

	members, err := scanMembers(rows)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		m.RoleIDs, err = r.memberRoles(ctx, m.ID)
		if err != nil {
			return nil, err
		}
	}
	return members, nil
}

func (r *MemberRepository) scanWithRoles(ctx context.Context, row pgx.Row, keyField, keyValue string) (*access.Member, error) {
	member, err := scanMemberRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MEMBER_NOT_FOUND").With(keyField, keyValue).Wrap(chat.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MEMBER_GET_FAILED").With(keyField, keyValue).Wrap(err)
	}
	member.RoleIDs, err = r.memberRoles(ctx, member.ID)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *MemberRepository) memberRoles(ctx context.Context, memberID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT role_id FROM member_roles WHERE member_id = $1 ORDER BY role_id
	`, memberID.String())
	if err != nil {
		return nil, oops.Code("MEMBER_ROLES_QUERY_FAILED").With("member_id", memberID.String()).Wrap(err)
	}
	return scanIDColumn(rows, "role_id")
}

func insertMemberRoles(ctx context.Context, q querier, memberID ulid.ULID, roleIDs []ulid.ULID) error {
	for _, roleID := range roleIDs {
		_, err := q.Exec(ctx, `
			INSERT INTO member_roles (member_id, role_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, memberID.String(), roleID.String())
		if err != nil {
			return oops.Code("MEMBER_ROLES_INSERT_FAILED").
				With("member_id", memberID.String()).
				With("role_id", roleID.String()).
				Wrap(err)
		}
	}
	return nil
}

func scanMemberRow(row pgx.Row) (*access.Member, error) {
	var member access.Member
	var idStr, groupIDStr, userIDStr string

	err := row.Scan(&idStr, &groupIDStr, &userIDStr, &member.JoinedAt)
	if err != nil {
		return nil, err
	}
	if err := parseMemberIDs(idStr, groupIDStr, userIDStr, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func parseMemberIDs(idStr, groupIDStr, userIDStr string, member *access.Member) error {
	var err error
	member.ID, err = ulid.Parse(idStr)
	if err != nil {
		return oops.Code("MEMBER_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	member.GroupID, err = ulid.Parse(groupIDStr)
	if err != nil {
		return oops.Code("MEMBER_PARSE_FAILED").With("field", "group_id").With("value", groupIDStr).Wrap(err)
	}
	member.UserID, err = ulid.Parse(userIDStr)
	if err != nil {
		return oops.Code("MEMBER_PARSE_FAILED").With("field", "user_id").With("value", userIDStr).Wrap(err)
	}
	return nil
}

func scanMembers(rows pgx.Rows) ([]*access.Member, error) {
	defer rows.Close()
	members := make([]*access.Member, 0)
	for rows.Next() {
		var member access.Member
		var idStr, groupIDStr, userIDStr string
		if err := rows.Scan(&idStr, &groupIDStr, &userIDStr, &member.JoinedAt); err != nil {
			return nil, oops.Code("MEMBER_SCAN_FAILED").Wrap(err)
		}
		if err := parseMemberIDs(idStr, groupIDStr, userIDStr, &member); err != nil {
			return nil, err
		}
		members = append(members, &member)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MEMBER_ITERATE_FAILED").Wrap(err)
	}
	return members, nil
}

// Compile-time interface check.
var _ chat.MemberRepository = (*MemberRepository)(nil)
