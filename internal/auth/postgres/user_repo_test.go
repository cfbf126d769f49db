// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

//go:build integration

package postgres_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncora/syncora/internal/auth"
	"github.com/syncora/syncora/internal/auth/postgres"
	"github.com/syncora/syncora/pkg/errutil"
)

func createUser(ctx context.Context, t *testing.T) *auth.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := ulid.Make()
	user := &auth.User{
		ID:           id,
		Username:     "user_" + id.String(),
		PasswordHash: "$argon2id$test",
		Preferences:  auth.Preferences{Theme: "dark", Locale: "en"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, postgres.NewUserRepository(testPool).Create(ctx, user))

	t.Cleanup(func() {
		_, _ = testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID.String())
	})

	return user
}

func TestUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	t.Run("returns ErrNotFound for non-existent user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, ulid.Make())
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
	})

	t.Run("round-trips a user with preferences", func(t *testing.T) {
		user := createUser(ctx, t)

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Username, got.Username)
		assert.Equal(t, "dark", got.Preferences.Theme)
		assert.Nil(t, got.LockedUntil)
	})

	t.Run("username lookup is case-insensitive", func(t *testing.T) {
		user := createUser(ctx, t)

		got, err := repo.GetByUsername(ctx, strings.ToUpper(user.Username))
		require.NoError(t, err)
		assert.Equal(t, user.Username, got.Username)
	})
}

func TestUserRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)
	user := createUser(ctx, t)

	locked := time.Now().UTC().Add(15 * time.Minute).Truncate(time.Microsecond)
	user.FailedAttempts = 3
	user.LockedUntil = &locked
	user.Preferences.Theme = "light"
	user.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.FailedAttempts)
	require.NotNil(t, got.LockedUntil)
	assert.WithinDuration(t, locked, *got.LockedUntil, time.Millisecond)
	assert.Equal(t, "light", got.Preferences.Theme)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)
	user := createUser(ctx, t)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "$argon2id$newhash"))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$newhash", got.PasswordHash)

	err = repo.UpdatePassword(ctx, ulid.Make(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)
	user := createUser(ctx, t)

	require.NoError(t, repo.Delete(ctx, user.ID))

	_, err := repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
