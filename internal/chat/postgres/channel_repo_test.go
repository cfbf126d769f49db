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

func TestChannelRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewChannelRepository(testPool)
	group := createTestGroup(ctx, t)

	t.Run("open channel has empty allow-list", func(t *testing.T) {
		channel := createTestChannel(ctx, t, group.ID)

		got, err := repo.Get(ctx, channel.ID)
		require.NoError(t, err)
		assert.Equal(t, channel.Name, got.Name)
		assert.Equal(t, access.ChannelText, got.Type)
		assert.Empty(t, got.AllowedRoleIDs)
		assert.True(t, got.Open())
	})

	t.Run("restricted channel round-trips its allow-list", func(t *testing.T) {
		role := createTestRole(ctx, t, group.ID, "Admin", 100)
		channel := createTestChannel(ctx, t, group.ID, role.ID)

		got, err := repo.Get(ctx, channel.ID)
		require.NoError(t, err)
		assert.Equal(t, []ulid.ULID{role.ID}, got.AllowedRoleIDs)
		assert.False(t, got.Open())
	})

	t.Run("returns ErrNotFound for non-existent channel", func(t *testing.T) {
		_, err := repo.Get(ctx, ulid.Make())
		require.Error(t, err)
		assert.ErrorIs(t, err, chat.ErrNotFound)
		errutil.AssertErrorCode(t, err, "CHANNEL_NOT_FOUND")
	})
}

func TestChannelRepository_Update_ReplacesAllowList(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewChannelRepository(testPool)
	group := createTestGroup(ctx, t)
	roleA := createTestRole(ctx, t, group.ID, "A", 10)
	roleB := createTestRole(ctx, t, group.ID, "B", 20)

	channel := createTestChannel(ctx, t, group.ID, roleA.ID)

	channel.Topic = "updated topic"
	channel.AllowedRoleIDs = []ulid.ULID{roleB.ID}
	require.NoError(t, repo.Update(ctx, channel))

	got, err := repo.Get(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated topic", got.Topic)
	assert.Equal(t, []ulid.ULID{roleB.ID}, got.AllowedRoleIDs)

	// Clearing the allow-list reopens the channel.
	channel.AllowedRoleIDs = nil
	require.NoError(t, repo.Update(ctx, channel))

	got, err = repo.Get(ctx, channel.ID)
	require.NoError(t, err)
	assert.True(t, got.Open())
}

func TestChannelRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewChannelRepository(testPool)
	group := createTestGroup(ctx, t)
	channel := createTestChannel(ctx, t, group.ID)

	require.NoError(t, repo.Delete(ctx, channel.ID))

	_, err := repo.Get(ctx, channel.ID)
	assert.ErrorIs(t, err, chat.ErrNotFound)

	err = repo.Delete(ctx, channel.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestChannelRepository_ListByGroup(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewChannelRepository(testPool)
	group := createTestGroup(ctx, t)

	first := createTestChannel(ctx, t, group.ID)
	second := createTestChannel(ctx, t, group.ID)

	channels, err := repo.ListByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, channels, 2)

	// Creation order (ULIDs sort by time).
	assert.Equal(t, first.ID, channels[0].ID)
	assert.Equal(t, second.ID, channels[1].ID)
}
