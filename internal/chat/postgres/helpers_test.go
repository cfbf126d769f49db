// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/chat/postgres"
)

// createTestUser creates a user row for foreign keys.
func createTestUser(ctx context.Context, t *testing.T) ulid.ULID {
	t.Helper()
	userID := ulid.Make()
	_, err := testPool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, 'testhash')
	`, userID.String(), "user_"+userID.String())
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID.String())
	})

	return userID
}

// createTestGroup creates a group owned by a fresh user.
func createTestGroup(ctx context.Context, t *testing.T) *access.Group {
	t.Helper()
	group := &access.Group{
		ID:        ulid.Make(),
		OwnerID:   createTestUser(ctx, t),
		Name:      "Test Group",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, postgres.NewGroupRepository(testPool).Create(ctx, group))

	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, group.ID.String())
	})

	return group
}

// createTestRole creates a role in the given group.
func createTestRole(ctx context.Context, t *testing.T, groupID ulid.ULID, name string, position int) *access.Role {
	t.Helper()
	role := &access.Role{
		ID:        ulid.Make(),
		GroupID:   groupID,
		Name:      name,
		Color:     "#99aab5",
		Position:  position,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, postgres.NewRoleRepository(testPool).Create(ctx, role))
	return role
}

// createTestMember adds a fresh user to the group with the given roles.
func createTestMember(ctx context.Context, t *testing.T, groupID ulid.ULID, roleIDs ...ulid.ULID) *access.Member {
	t.Helper()
	member := &access.Member{
		ID:       ulid.Make(),
		GroupID:  groupID,
		UserID:   createTestUser(ctx, t),
		RoleIDs:  roleIDs,
		JoinedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, postgres.NewMemberRepository(testPool).Create(ctx, member))
	return member
}

// createTestChannel creates a text channel in the group.
func createTestChannel(ctx context.Context, t *testing.T, groupID ulid.ULID, allowedRoleIDs ...ulid.ULID) *access.Channel {
	t.Helper()
	channel := &access.Channel{
		ID:             ulid.Make(),
		GroupID:        groupID,
		Name:           "test-channel",
		Type:           access.ChannelText,
		AllowedRoleIDs: allowedRoleIDs,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, postgres.NewChannelRepository(testPool).Create(ctx, channel))
	return channel
}
