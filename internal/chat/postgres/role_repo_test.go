// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/chat"
	"github.com/syncora/syncora/internal/chat/postgres"
	"github.com/syncora/syncora/pkg/errutil"
)

func TestRoleRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewRoleRepository(testPool)
	group := createTestGroup(ctx, t)

	role := &access.Role{
		ID:          ulid.Make(),
		GroupID:     group.ID,
		Name:        "Moderator",
		Color:       "#3498db",
		Position:    50,
		Permissions: access.NewPermissionSet(access.PermSendMessages, access.PermKickMembers),
		IsDefault:   false,
	}
	require.NoError(t, repo.Create(ctx, role))

	got, err := repo.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, role.Name, got.Name)
	assert.Equal(t, role.Color, got.Color)
	assert.Equal(t, role.Position, got.Position)
	assert.Equal(t, role.Permissions, got.Permissions)
	assert.False(t, got.IsDefault)

	t.Run("returns ErrNotFound for non-existent role", func(t *testing.T) {
		_, err := repo.Get(ctx, ulid.Make())
		require.Error(t, err)
		assert.ErrorIs(t, err, chat.ErrNotFound)
		errutil.AssertErrorCode(t, err, "ROLE_NOT_FOUND")
	})
}

func TestRoleRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewRoleRepository(testPool)
	group := createTestGroup(ctx, t)
	role := createTestRole(ctx, t, group.ID, "Original", 10)

	role.Name = "Renamed"
	role.Permissions = access.NewPermissionSet(access.PermManageChannels)
	require.NoError(t, repo.Update(ctx, role))

	got, err := repo.Get(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.Permissions.Has(access.PermManageChannels))
}

func TestRoleRepository_Delete_ClearsReferences(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewRoleRepository(testPool)
	group := createTestGroup(ctx, t)
	role := createTestRole(ctx, t, group.ID, "Doomed", 10)
	keep := createTestRole(ctx, t, group.ID, "Keeper", 20)

	member := createTestMember(ctx, t, group.ID, role.ID, keep.ID)
	channel := createTestChannel(ctx, t, group.ID, role.ID, keep.ID)

	require.NoError(t, repo.Delete(ctx, role.ID))

	// The member loses the deleted role but keeps the other.
	gotMember, err := postgres.NewMemberRepository(testPool).Get(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, []ulid.ULID{keep.ID}, gotMember.RoleIDs)

	// The channel allow-list drops the deleted role.
	gotChannel, err := postgres.NewChannelRepository(testPool).Get(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, []ulid.ULID{keep.ID}, gotChannel.AllowedRoleIDs)
}

func TestRoleRepository_ListByGroup(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewRoleRepository(testPool)
	group := createTestGroup(ctx, t)

	createTestRole(ctx, t, group.ID, "Everyone", 0)
	createTestRole(ctx, t, group.ID, "Admin", 100)
	createTestRole(ctx, t, group.ID, "Moderator", 50)

	roles, err := repo.ListByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, roles, 3)

	// Descending position.
	assert.Equal(t, "Admin", roles[0].Name)
	assert.Equal(t, "Moderator", roles[1].Name)
	assert.Equal(t, "Everyone", roles[2].Name)
}
