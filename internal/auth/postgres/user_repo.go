// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

// Package postgres implements the auth repositories over PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/syncora/syncora/internal/auth"
)

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "marshal preferences").
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (
			id, username, password_hash, email, email_verified,
			failed_attempts, locked_until, preferences, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID.String(), user.Username, user.PasswordHash, user.Email, user.EmailVerified,
		user.FailedAttempts, user.LockedUntil, prefsJSON, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").With("id", user.ID.String()).Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, email, email_verified,
			failed_attempts, locked_until, preferences, created_at, updated_at
		FROM users WHERE id = $1
	`, id.String())
	user, err := scanUserRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("id", id.String()).Wrap(err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username, case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, email, email_verified,
			failed_attempts, locked_until, preferences, created_at, updated_at
		FROM users WHERE LOWER(username) = LOWER($1)
	`, username)
	user, err := scanUserRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").With("username", username).Wrap(err)
	}
	return user, nil
}

// Update updates an existing user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	prefsJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "marshal preferences").
			Wrap(err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			username = $2, password_hash = $3, email = $4, email_verified = $5,
			failed_attempts = $6, locked_until = $7, preferences = $8, updated_at = $9
		WHERE id = $1
	`, user.ID.String(), user.Username, user.PasswordHash, user.Email, user.EmailVerified,
		user.FailedAttempts, user.LockedUntil, prefsJSON, user.UpdatedAt)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", user.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword updates only the password hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, id.String(), passwordHash)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUserRow(row pgx.Row) (*auth.User, error) {
	var user auth.User
	var idStr string
	var prefsJSON []byte

	err := row.Scan(
		&idStr, &user.Username, &user.PasswordHash, &user.Email, &user.EmailVerified,
		&user.FailedAttempts, &user.LockedUntil, &prefsJSON, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_PARSE_FAILED").With("field", "id").With("value", idStr).Wrap(err)
	}
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &user.Preferences); err != nil {
			return nil, oops.Code("USER_PARSE_FAILED").With("field", "preferences").Wrap(err)
		}
	}
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
