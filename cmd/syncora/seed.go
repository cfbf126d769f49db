// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/syncora/syncora/internal/access"
	"github.com/syncora/syncora/internal/auth"
	authpg "github.com/syncora/syncora/internal/auth/postgres"
	"github.com/syncora/syncora/internal/chat"
	chatpg "github.com/syncora/syncora/internal/chat/postgres"
	"github.com/syncora/syncora/internal/store"
)

// Default timeout for the seed command.
const defaultSeedTimeout = 30 * time.Second

// seedUserID is a well-known ID so re-running the seed hits the unique
// username constraint instead of creating duplicate users.
// ULID must be exactly 26 characters (Crockford's base32 alphabet).
const seedUserID = "01JA0000000000000000000001"

// seedGroupName identifies the demo group for idempotency checks.
const seedGroupName = "Demo Workspace"

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo workspace",
		Long: `Creates a demo user and group with the default role ladder, an open
"general" channel, and an admin-only "leadership" channel.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, cfg *seedConfig) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Open(ctx, databaseURL, store.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer pool.Close()

	cmd.Println("Running migrations...")
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return err
	}
	if err := migrator.Close(); err != nil {
		return err
	}

	userID, err := seedUser(ctx, cmd, pool)
	if err != nil {
		return err
	}
	if err := seedGroup(ctx, cmd, pool, userID); err != nil {
		return err
	}

	cmd.Println("Seeding complete!")
	return nil
}

// seedUser creates the demo user, or reuses it when already present.
func seedUser(ctx context.Context, cmd *cobra.Command, pool *pgxpool.Pool) (ulid.ULID, error) {
	userID, err := ulid.Parse(seedUserID)
	if err != nil {
		return ulid.ULID{}, oops.Code("SEED_FAILED").With("operation", "parse seed user ID").Wrap(err)
	}

	hasher := auth.NewArgon2idHasher()
	hash, err := hasher.Hash("syncora-demo")
	if err != nil {
		return ulid.ULID{}, oops.Code("SEED_FAILED").With("operation", "hash demo password").Wrap(err)
	}

	now := time.Now().UTC()
	user := &auth.User{
		ID:           userID,
		Username:     "demo",
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := authpg.NewUserRepository(pool).Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			cmd.Println("Demo user already exists, skipping")
			return userID, nil
		}
		return ulid.ULID{}, oops.Code("SEED_FAILED").With("operation", "create demo user").Wrap(err)
	}

	cmd.Println("Created demo user (username: demo, password: syncora-demo)")
	return userID, nil
}

// seedGroup creates the demo group with the default role ladder, the open
// "general" channel, and an admin-only "leadership" channel.
func seedGroup(ctx context.Context, cmd *cobra.Command, pool *pgxpool.Pool, ownerID ulid.ULID) error {
	groups := chatpg.NewGroupRepository(pool)

	existing, err := groups.ListForUser(ctx, ownerID)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "list demo user groups").Wrap(err)
	}
	for _, g := range existing {
		if g.Name == seedGroupName {
			cmd.Println("Demo group already exists, skipping seed")
			slog.Info("workspace already seeded", "group_id", g.ID)
			return nil
		}
	}

	roles := chatpg.NewRoleRepository(pool)
	svc := chat.NewService(chat.ServiceConfig{
		Groups:        groups,
		Roles:         roles,
		Channels:      chatpg.NewChannelRepository(pool),
		Members:       chatpg.NewMemberRepository(pool),
		Messages:      chatpg.NewMessageRepository(pool),
		Conversations: chatpg.NewConversationRepository(pool),
	})

	group, err := svc.CreateGroup(ctx, ownerID, seedGroupName)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "create demo group").Wrap(err)
	}
	cmd.Println("Created demo group: " + seedGroupName)

	groupRoles, err := roles.ListByGroup(ctx, group.ID)
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "list demo group roles").Wrap(err)
	}
	var adminID ulid.ULID
	for _, role := range groupRoles {
		if role.Name == "Admin" {
			adminID = role.ID
			break
		}
	}
	if adminID.IsZero() {
		return oops.Code("SEED_FAILED").Errorf("demo group has no Admin role")
	}

	_, err = svc.CreateChannel(ctx, ownerID, group.ID, "leadership", "Admins only",
		access.ChannelText, []ulid.ULID{adminID})
	if err != nil {
		return oops.Code("SEED_FAILED").With("operation", "create leadership channel").Wrap(err)
	}
	cmd.Println("Created admin-only channel: leadership")

	slog.Info("created demo group", "id", group.ID, "name", group.Name)
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
